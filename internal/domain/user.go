package domain

import "time"

// User — профиль пользователя витрины. Аутентификацию выполняет внешняя
// платформа; здесь хранится только профиль и признак администратора.
type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhotoURL    string
	IsAdmin     bool
	CreatedAt   time.Time
	LastLoginAt time.Time
	// PromotedAt заполняется при выдаче прав администратора.
	PromotedAt time.Time
}

// Validate проверяет ключевые поля профиля.
func (u *User) Validate() []error {
	var errs []error

	if u.ID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if u.Email == "" {
		errs = append(errs, ErrEmailRequired)
	}

	return errs
}
