package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в витрине.
// Значения являются частью формата хранимых документов и не подлежат переименованию.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток уже списан, обработка не начата.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ взят в обработку.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку (терминальный).
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту (терминальный).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён (терминальный).
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses возвращает распознаваемые статусы в порядке happy path.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// Valid проверяет, что статус относится к пяти распознаваемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, покидает ли заказ этот статус. Из терминального статуса
// переходов нет (cancelOrder это проверяет; прямой update — нет, см. Cancellable).
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Cancellable сообщает, допускает ли статус отмену заказа.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// TimestampField возвращает имя документного поля с отметкой времени перехода
// в данный статус: "processing" -> "processingAt" и т.д.
func (s OrderStatus) TimestampField() string {
	return string(s) + "At"
}

// OrderItem — снимок одной позиции заказа на момент оформления.
// Цена не перечитывается из каталога после создания; позиции append-only.
type OrderItem struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int32
	// Price — цена за единицу, fixed-point строка вида "10.00".
	Price string
	// Total — построчный итог price*quantity, fixed-point строка.
	Total string
}

// Order агрегирует состояние заказа. После создания мутируют только статус,
// статусные отметки времени и причина отмены.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	Total           string
	ShippingAddress string
	// CancellationReason заполняется при отмене.
	CancellationReason string
	Items              []OrderItem
	// StatusAt хранит отметки времени переходов по полям "<status>At".
	StatusAt  map[OrderStatus]time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if _, err := ParsePrice(item.Price); err != nil {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	// Сверяем итог заказа с суммой позиций: qty * price.
	if len(o.Items) > 0 {
		calc, err := OrderItemsTotal(o.Items)
		if err == nil && calc != o.Total {
			errs = append(errs, ErrTotalMismatch)
		}
	}

	return errs
}

// OrderItemsTotal считает сумму позиций как fixed-point строку.
func OrderItemsTotal(items []OrderItem) (string, error) {
	total := DecimalZero()
	for _, item := range items {
		price, err := ParsePrice(item.Price)
		if err != nil {
			return "", err
		}
		total = total.Add(price.Mul(DecimalFromInt32(item.Quantity)))
	}
	return FormatPrice(total), nil
}
