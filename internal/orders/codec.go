package orders

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CollectionOrders — имя коллекции заказов в документном хранилище.
const CollectionOrders = "orders"

// encodeOrder сериализует заказ в документ. Статусные отметки времени лежат в
// полях "<status>At" рядом с остальными атрибутами.
func encodeOrder(o domain.Order) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"id":          item.ID,
			"productId":   item.ProductID,
			"productName": item.ProductName,
			"quantity":    item.Quantity,
			"price":       item.Price,
			"total":       item.Total,
		})
	}

	data := map[string]any{
		"userId":          o.UserID,
		"status":          string(o.Status),
		"total":           o.Total,
		"shippingAddress": o.ShippingAddress,
		"items":           items,
		"createdAt":       docstore.EncodeTime(o.CreatedAt),
		"updatedAt":       docstore.EncodeTime(o.UpdatedAt),
	}
	if o.CancellationReason != "" {
		data["cancellationReason"] = o.CancellationReason
	}
	for status, at := range o.StatusAt {
		if !at.IsZero() {
			data[status.TimestampField()] = docstore.EncodeTime(at)
		}
	}
	return data
}

// decodeOrder восстанавливает заказ из документа. Неполные исторические
// документы декодируются с нулевыми значениями отсутствующих полей.
func decodeOrder(doc docstore.Document) domain.Order {
	o := domain.Order{ID: doc.ID, StatusAt: map[domain.OrderStatus]time.Time{}}

	o.UserID, _ = docstore.GetString(doc.Data, "userId")
	if s, ok := docstore.GetString(doc.Data, "status"); ok {
		o.Status = domain.OrderStatus(s)
	}
	o.Total, _ = docstore.GetString(doc.Data, "total")
	o.ShippingAddress, _ = docstore.GetString(doc.Data, "shippingAddress")
	o.CancellationReason, _ = docstore.GetString(doc.Data, "cancellationReason")

	if t, ok := docstore.GetTime(doc.Data, "createdAt"); ok {
		o.CreatedAt = t
	}
	if t, ok := docstore.GetTime(doc.Data, "updatedAt"); ok {
		o.UpdatedAt = t
	}
	for _, status := range domain.AllOrderStatuses() {
		if t, ok := docstore.GetTime(doc.Data, status.TimestampField()); ok {
			o.StatusAt[status] = t
		}
	}

	if raw, ok := doc.Data["items"].([]any); ok {
		o.Items = make([]domain.OrderItem, 0, len(raw))
		for _, v := range raw {
			fields, ok := v.(map[string]any)
			if !ok {
				continue
			}
			item := domain.OrderItem{}
			item.ID, _ = docstore.GetString(fields, "id")
			item.ProductID, _ = docstore.GetString(fields, "productId")
			item.ProductName, _ = docstore.GetString(fields, "productName")
			if qty, ok := docstore.GetInt(fields, "quantity"); ok {
				item.Quantity = int32(qty)
			}
			item.Price, _ = docstore.GetString(fields, "price")
			item.Total, _ = docstore.GetString(fields, "total")
			o.Items = append(o.Items, item)
		}
	}

	return o
}

// nowUTC вынесена для подмены времени в тестах.
var nowUTC = func() time.Time { return time.Now().UTC() }
