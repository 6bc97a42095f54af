package domain

import "time"

// Product описывает товар каталога. Физического удаления нет: isActive=false
// скрывает товар из выдачи, сохраняя историю заказов.
type Product struct {
	ID          string
	Name        string
	Description string
	// Price — fixed-point строка вида "10.00".
	Price    string
	ImageURL string
	Category string
	// Stock — неотрицательный остаток; списание при оформлении заказа
	// ограничено снизу нулём.
	Stock     int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	// DeletedAt заполняется при soft delete.
	DeletedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if _, err := ParsePrice(p.Price); err != nil {
		errs = append(errs, ErrPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
