// Package orders реализует транзакцию оформления заказа и state machine его
// жизненного цикла поверх документного хранилища. Создание заказа и списание
// остатков происходят в одной атомарной транзакции; доменные события уходят
// через transactional outbox в той же транзакции.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultUserListLimit   = 50
	defaultAdminListLimit  = 100
	defaultRecentListLimit = 10
)

// PlaceOrderItem — позиция оформляемого заказа. Цена приходит снимком из
// корзины и фиксируется в заказе как есть.
type PlaceOrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int32
	Price       string
}

// PlaceOrderInput — параметры оформления заказа.
type PlaceOrderInput struct {
	UserID          string
	ShippingAddress string
	Items           []PlaceOrderItem
}

// Statistics — агрегаты по всем заказам для административной панели.
type Statistics struct {
	TotalOrders int
	// TotalRevenue — fixed-point сумма итогов всех неотменённых заказов.
	TotalRevenue   string
	OrdersByStatus map[domain.OrderStatus]int
}

// Service управляет заказами поверх docstore.Store. Outbox и метрики
// опциональны: nil отключает соответствующий аспект.
type Service struct {
	store   docstore.Store
	outbox  domain.OutboxRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// NewService создаёт сервис заказов.
func NewService(store docstore.Store, outbox domain.OutboxRepository, m *metrics.OrderMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Service{store: store, outbox: outbox, metrics: m, logger: logger}
}

// Place оформляет заказ: в одной транзакции создаёт документ заказа со
// снимками позиций и списывает остатки затронутых товаров. Позиции с
// отсутствующими в каталоге товарами попадают в заказ, но остаток по ним не
// списывается. Конфликт конкурентной записи возвращается как
// docstore.ErrTxConflict без частичного применения; ретрай — на вызывающей
// стороне.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordPlaceDuration(time.Since(start))
	}()

	if in.UserID == "" {
		return domain.Order{}, domain.ErrUserIDRequired
	}
	if len(in.Items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, domain.ErrItemQtyInvalid
		}
		if _, err := domain.ParsePrice(item.Price); err != nil {
			return domain.Order{}, fmt.Errorf("%w: product %s", domain.ErrItemPriceInvalid, item.ProductID)
		}
	}

	now := nowUTC()
	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		StatusAt:        map[domain.OrderStatus]time.Time{domain.OrderStatusPending: now},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	total := domain.DecimalZero()
	order.Items = make([]domain.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		price, _ := domain.ParsePrice(item.Price)
		lineTotal := price.Mul(domain.DecimalFromInt32(item.Quantity))
		total = total.Add(lineTotal)
		order.Items = append(order.Items, domain.OrderItem{
			ID:          order.ID + "-" + item.ProductID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       domain.FormatPrice(price),
			Total:       domain.FormatPrice(lineTotal),
		})
	}
	order.Total = domain.FormatPrice(total)

	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		// Имена товаров уточняются по каталогу внутри транзакции; списание
		// пропускает отсутствующие товары.
		for i := range order.Items {
			item := &order.Items[i]
			doc, err := tx.Get(catalog.CollectionProducts, item.ProductID)
			if err != nil {
				if docstore.IsNotFound(err) {
					continue
				}
				return err
			}
			if name, ok := docstore.GetString(doc.Data, "name"); ok && name != "" {
				item.ProductName = name
			}
			stock, _ := docstore.GetInt(doc.Data, "stock")
			stock -= int64(item.Quantity)
			if stock < 0 {
				stock = 0
			}
			if err := tx.Update(catalog.CollectionProducts, item.ProductID, map[string]any{
				"stock":     stock,
				"updatedAt": docstore.EncodeTime(now),
			}); err != nil {
				return err
			}
		}

		if err := tx.Set(CollectionOrders, order.ID, encodeOrder(order)); err != nil {
			return err
		}

		return s.enqueueEventTx(tx, EventTypeOrderCreated, order.ID, orderEventPayload{
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  string(order.Status),
			Total:   order.Total,
		})
	})
	if err != nil {
		if docstore.IsConflict(err) {
			s.metrics.RecordTxConflict()
		}
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	s.metrics.RecordOrderPlaced()
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
		"items":    len(order.Items),
	}).Info("order placed")

	return order, nil
}

// UpdateStatus переводит заказ в указанный статус. Значение проверяется на
// принадлежность к распознаваемым статусам, но переход не сверяется с текущим
// состоянием: административная операция перезаписывает статус безусловно.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	now := docstore.EncodeTime(nowUTC())
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		if err := tx.Update(CollectionOrders, orderID, map[string]any{
			"status":                string(status),
			"updatedAt":             now,
			status.TimestampField(): now,
		}); err != nil {
			return err
		}
		return s.enqueueEventTx(tx, EventTypeOrderStatusChanged, orderID, orderEventPayload{
			OrderID: orderID,
			Status:  string(status),
		})
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.ErrOrderNotFound
		}
		if docstore.IsConflict(err) {
			s.metrics.RecordTxConflict()
		}
		return fmt.Errorf("update order %s status: %w", orderID, err)
	}

	s.metrics.RecordStatusChange(string(status))
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("order status updated")

	return nil
}

// Cancel отменяет заказ в статусе pending или processing. Возврат остатков
// выполняется только при отмене из processing: pending-заказ остатки не
// восстанавливает.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) error {
	now := nowUTC()
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		doc, err := tx.Get(CollectionOrders, orderID)
		if err != nil {
			return err
		}
		order := decodeOrder(doc)

		if !order.Status.Cancellable() {
			return fmt.Errorf("%w: status %q", domain.ErrNotCancellable, order.Status)
		}

		if order.Status == domain.OrderStatusProcessing {
			for _, item := range order.Items {
				pdoc, err := tx.Get(catalog.CollectionProducts, item.ProductID)
				if err != nil {
					if docstore.IsNotFound(err) {
						continue
					}
					return err
				}
				stock, _ := docstore.GetInt(pdoc.Data, "stock")
				if err := tx.Update(catalog.CollectionProducts, item.ProductID, map[string]any{
					"stock":     stock + int64(item.Quantity),
					"updatedAt": docstore.EncodeTime(now),
				}); err != nil {
					return err
				}
			}
		}

		encoded := docstore.EncodeTime(now)
		if err := tx.Update(CollectionOrders, orderID, map[string]any{
			"status":             string(domain.OrderStatusCancelled),
			"cancelledAt":        encoded,
			"updatedAt":          encoded,
			"cancellationReason": reason,
		}); err != nil {
			return err
		}

		return s.enqueueEventTx(tx, EventTypeOrderCancelled, orderID, orderEventPayload{
			OrderID: orderID,
			Status:  string(domain.OrderStatusCancelled),
			Reason:  reason,
		})
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.ErrOrderNotFound
		}
		if docstore.IsConflict(err) {
			s.metrics.RecordTxConflict()
		}
		if domain.IsInvalidTransition(err) {
			return err
		}
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	s.metrics.RecordOrderCancelled()
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"reason":   reason,
	}).Info("order cancelled")

	return nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := s.store.Get(ctx, CollectionOrders, orderID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return decodeOrder(doc), nil
}

// ListByUser возвращает заказы пользователя, сначала новые.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultUserListLimit
	}
	return s.list(ctx, docstore.Query{
		Filters: map[string]any{"userId": userID},
		OrderBy: docstore.OrderBy{Field: "createdAt", Direction: docstore.Descending},
		Limit:   limit,
	})
}

// ListAll возвращает последние заказы всех пользователей (админ).
func (s *Service) ListAll(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultAdminListLimit
	}
	return s.list(ctx, docstore.Query{
		OrderBy: docstore.OrderBy{Field: "createdAt", Direction: docstore.Descending},
		Limit:   limit,
	})
}

// ListRecent возвращает короткую ленту последних заказов для дашборда.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultRecentListLimit
	}
	return s.ListAll(ctx, limit)
}

func (s *Service) list(ctx context.Context, q docstore.Query) ([]domain.Order, error) {
	docs, err := s.store.Query(ctx, CollectionOrders, q)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	result := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		result = append(result, decodeOrder(doc))
	}
	return result, nil
}

// Statistics считает агрегаты полным сканом коллекции заказов. На больших
// объёмах операция дорогая; кеширование или инкрементальные счётчики — на
// стороне вызывающего.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	docs, err := s.store.Query(ctx, CollectionOrders, docstore.Query{
		OrderBy: docstore.OrderBy{Field: "createdAt", Direction: docstore.Ascending},
	})
	if err != nil {
		return Statistics{}, fmt.Errorf("scan orders: %w", err)
	}

	stats := Statistics{
		OrdersByStatus: make(map[domain.OrderStatus]int, len(domain.AllOrderStatuses())),
	}
	// Каждый известный статус присутствует в разрезе, даже с нулевым счётчиком.
	for _, status := range domain.AllOrderStatuses() {
		stats.OrdersByStatus[status] = 0
	}
	revenue := domain.DecimalZero()

	for _, doc := range docs {
		order := decodeOrder(doc)
		stats.TotalOrders++
		// Нераспознанный статус учитывается в общем счётчике, но не в разрезе.
		if order.Status.Valid() {
			stats.OrdersByStatus[order.Status]++
		}
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		if total, err := domain.ParsePrice(order.Total); err == nil {
			revenue = revenue.Add(total)
		}
	}

	stats.TotalRevenue = domain.FormatPrice(revenue)
	return stats, nil
}
