package catalog

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CollectionProducts — имя коллекции товаров в документном хранилище.
const CollectionProducts = "products"

// encodeProduct сериализует товар в документ с каноническими именами полей.
func encodeProduct(p domain.Product) map[string]any {
	data := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"imageUrl":    p.ImageURL,
		"category":    p.Category,
		"stock":       p.Stock,
		"isActive":    p.IsActive,
		"createdAt":   docstore.EncodeTime(p.CreatedAt),
		"updatedAt":   docstore.EncodeTime(p.UpdatedAt),
	}
	if !p.DeletedAt.IsZero() {
		data["deletedAt"] = docstore.EncodeTime(p.DeletedAt)
	}
	return data
}

// decodeProduct восстанавливает товар из документа. Отсутствующие поля
// получают нулевые значения: исторические документы могут быть неполными.
func decodeProduct(doc docstore.Document) domain.Product {
	p := domain.Product{ID: doc.ID}

	p.Name, _ = docstore.GetString(doc.Data, "name")
	p.Description, _ = docstore.GetString(doc.Data, "description")
	p.Price, _ = docstore.GetString(doc.Data, "price")
	p.ImageURL, _ = docstore.GetString(doc.Data, "imageUrl")
	p.Category, _ = docstore.GetString(doc.Data, "category")
	p.Stock, _ = docstore.GetInt(doc.Data, "stock")
	p.IsActive, _ = docstore.GetBool(doc.Data, "isActive")

	if t, ok := docstore.GetTime(doc.Data, "createdAt"); ok {
		p.CreatedAt = t
	}
	if t, ok := docstore.GetTime(doc.Data, "updatedAt"); ok {
		p.UpdatedAt = t
	}
	if t, ok := docstore.GetTime(doc.Data, "deletedAt"); ok {
		p.DeletedAt = t
	}

	return p
}

// nowUTC вынесена для подмены времени в тестах.
var nowUTC = func() time.Time { return time.Now().UTC() }
