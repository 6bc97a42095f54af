// Package catalog реализует чтение и администрирование каталога товаров поверх
// документного хранилища. Товары не удаляются физически: деактивация скрывает
// их из выдачи, сохраняя ссылки из исторических заказов.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultListLimit     = 20
	defaultFeaturedLimit = 8

	// SortByName — сортировка по имени (по умолчанию).
	SortByName = "name"
	// SortByPriceLow — по возрастанию цены.
	SortByPriceLow = "price-low"
	// SortByPriceHigh — по убыванию цены.
	SortByPriceHigh = "price-high"
	// SortByNewest — сначала новые.
	SortByNewest = "newest"
)

// Filters описывает параметры выборки каталога.
type Filters struct {
	// Category фильтрует по точному совпадению; пустая строка и "all"
	// означают все категории.
	Category string
	// Search — подстрочный поиск по имени, описанию и категории. Применяется
	// к уже выбранной странице: совпадения за её пределами не находятся.
	Search string
	// SortBy — один из Sort* ключей; пустое значение эквивалентно SortByName.
	SortBy string
	// Cursor — opaque-курсор следующей страницы из предыдущего ответа.
	Cursor string
	// Limit — размер страницы; <= 0 означает значение по умолчанию.
	Limit int
}

// Page — страница выдачи каталога.
type Page struct {
	Products   []domain.Product
	NextCursor string
	HasMore    bool
}

// CreateInput — параметры создания товара.
type CreateInput struct {
	Name        string
	Description string
	Price       string
	ImageURL    string
	Category    string
	Stock       int64
}

// Patch — частичное обновление товара; nil-поля не изменяются.
type Patch struct {
	Name        *string
	Description *string
	Price       *string
	ImageURL    *string
	Category    *string
	Stock       *int64
	IsActive    *bool
}

// Service предоставляет операции каталога поверх docstore.Store.
type Service struct {
	store  docstore.Store
	logger *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(store docstore.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{store: store, logger: logger}
}

// List возвращает страницу активных товаров согласно фильтрам.
func (s *Service) List(ctx context.Context, f Filters) (Page, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := docstore.Query{
		Filters: map[string]any{"isActive": true},
		OrderBy: sortOrder(f.SortBy),
		Limit:   limit,
		Cursor:  f.Cursor,
	}
	if f.Category != "" && f.Category != "all" {
		q.Filters["category"] = f.Category
	}

	docs, err := s.store.Query(ctx, CollectionProducts, q)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}

	page := Page{
		Products: make([]domain.Product, 0, len(docs)),
		HasMore:  len(docs) == limit,
	}
	for _, doc := range docs {
		page.Products = append(page.Products, decodeProduct(doc))
	}

	if page.HasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		page.NextCursor = docstore.EncodeCursor(last.Data[q.OrderBy.Field], last.ID)
	}

	// Поиск сужает уже выбранную страницу; курсор при этом указывает на
	// позицию в несуженной выдаче.
	if f.Search != "" {
		page.Products = filterBySearch(page.Products, f.Search)
	}

	return page, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	doc, err := s.store.Get(ctx, CollectionProducts, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return decodeProduct(doc), nil
}

// Create добавляет товар в каталог. Цена нормализуется к fixed-point строке,
// отрицательный остаток поднимается до нуля.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	price, err := domain.NormalizePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}

	stock := in.Stock
	if stock < 0 {
		stock = 0
	}

	now := nowUTC()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Set(CollectionProducts, p.ID, encodeProduct(p))
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"product_id": p.ID,
		"category":   p.Category,
	}).Info("product created")

	return p, nil
}

// Update вливает частичное обновление в существующий товар.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (domain.Product, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return domain.Product{}, domain.ErrProductNameRequired
		}
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		price, err := domain.NormalizePrice(*patch.Price)
		if err != nil {
			return domain.Product{}, err
		}
		fields["price"] = price
	}
	if patch.ImageURL != nil {
		fields["imageUrl"] = *patch.ImageURL
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if patch.Stock != nil {
		stock := *patch.Stock
		if stock < 0 {
			stock = 0
		}
		fields["stock"] = stock
	}
	if patch.IsActive != nil {
		fields["isActive"] = *patch.IsActive
	}
	fields["updatedAt"] = docstore.EncodeTime(nowUTC())

	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(CollectionProducts, id, fields)
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}

	return s.Get(ctx, id)
}

// SoftDelete деактивирует товар, не удаляя документ.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	now := docstore.EncodeTime(nowUTC())
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(CollectionProducts, id, map[string]any{
			"isActive":  false,
			"deletedAt": now,
			"updatedAt": now,
		})
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.logger.WithField("product_id", id).Info("product deactivated")
	return nil
}

// ListByCategory возвращает активные товары категории, отсортированные по имени.
func (s *Service) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	docs, err := s.store.Query(ctx, CollectionProducts, docstore.Query{
		Filters: map[string]any{"isActive": true, "category": category},
		OrderBy: docstore.OrderBy{Field: "name", Direction: docstore.Ascending},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products by category %s: %w", category, err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, decodeProduct(doc))
	}
	return products, nil
}

// Featured возвращает активные товары с положительным остатком, сначала самые
// обеспеченные. Хранилище не умеет диапазонные фильтры, поэтому нулевые
// остатки отсекаются после выборки.
func (s *Service) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	docs, err := s.store.Query(ctx, CollectionProducts, docstore.Query{
		Filters: map[string]any{"isActive": true},
		OrderBy: docstore.OrderBy{Field: "stock", Direction: docstore.Descending},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p := decodeProduct(doc)
		if p.Stock <= 0 {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// UpdateStock выставляет остаток товара (административная операция).
// Отрицательное значение поднимается до нуля.
func (s *Service) UpdateStock(ctx context.Context, id string, stock int64) error {
	if stock < 0 {
		stock = 0
	}
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(CollectionProducts, id, map[string]any{
			"stock":     stock,
			"updatedAt": docstore.EncodeTime(nowUTC()),
		})
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("update stock for product %s: %w", id, err)
	}
	return nil
}

func sortOrder(sortBy string) docstore.OrderBy {
	switch sortBy {
	case SortByPriceLow:
		return docstore.OrderBy{Field: "price", Direction: docstore.Ascending}
	case SortByPriceHigh:
		return docstore.OrderBy{Field: "price", Direction: docstore.Descending}
	case SortByNewest:
		return docstore.OrderBy{Field: "createdAt", Direction: docstore.Descending}
	default:
		return docstore.OrderBy{Field: "name", Direction: docstore.Ascending}
	}
}

func filterBySearch(products []domain.Product, term string) []domain.Product {
	needle := strings.ToLower(term)
	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}
