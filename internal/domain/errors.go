package domain

import "errors"

var (
	// ErrProductNotFound возвращается, если товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound возвращается, если профиль пользователя не найден.
	ErrUserNotFound = errors.New("user not found")

	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserIDRequired = errors.New("userId is required")
	// Ошибка отсутствующего email в профиле.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции не разбирается или отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be a non-negative fixed-point string")
	// Ошибка несоответствия итога заказа и суммы позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// Ошибка нераспознанного статуса заказа.
	ErrInvalidStatus = errors.New("unknown order status")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка некорректной цены товара.
	ErrPriceInvalid = errors.New("price must be a non-negative fixed-point string")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("stock must be non-negative")

	// ErrNotCancellable — попытка отменить заказ в неотменяемом статусе.
	ErrNotCancellable = errors.New("order cannot be cancelled in its current status")
)

// invalidArgumentErrors перечисляет ошибки семейства InvalidArgument для
// маппинга на границе API.
var invalidArgumentErrors = []error{
	ErrUserIDRequired,
	ErrEmailRequired,
	ErrItemsRequired,
	ErrItemQtyInvalid,
	ErrItemPriceInvalid,
	ErrTotalMismatch,
	ErrInvalidStatus,
	ErrProductNameRequired,
	ErrPriceInvalid,
	ErrStockNegative,
}

// IsNotFound проверяет принадлежность к семейству NotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsInvalidArgument проверяет принадлежность к семейству InvalidArgument.
func IsInvalidArgument(err error) bool {
	for _, target := range invalidArgumentErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalidTransition проверяет, является ли ошибка нарушением state machine заказа.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrNotCancellable)
}
