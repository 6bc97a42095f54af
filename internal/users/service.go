// Package users хранит профили пользователей и признак администратора.
// Аутентификация выполняется внешней платформой: сюда приходит уже проверенный
// идентификатор, сервис лишь сопровождает профиль и отвечает на вопрос "админ ли".
package users

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CollectionUsers — имя коллекции профилей в документном хранилище.
const CollectionUsers = "users"

// Profile — данные профиля, приходящие от платформы аутентификации.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	PhotoURL  string
}

// Service управляет профилями поверх docstore.Store.
type Service struct {
	store  docstore.Store
	logger *log.Entry
}

// NewService создаёт сервис профилей.
func NewService(store docstore.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "users")
	}
	return &Service{store: store, logger: logger}
}

// EnsureProfile создаёт профиль при первом входе или обновляет lastLoginAt при
// повторном. Возвращает актуальное состояние профиля.
func (s *Service) EnsureProfile(ctx context.Context, userID string, p Profile) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.ErrUserIDRequired
	}

	now := nowUTC()
	var result domain.User

	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		doc, err := tx.Get(CollectionUsers, userID)
		if err == nil {
			if uerr := tx.Update(CollectionUsers, userID, map[string]any{
				"lastLoginAt": docstore.EncodeTime(now),
			}); uerr != nil {
				return uerr
			}
			result = decodeUser(doc)
			result.LastLoginAt = now
			return nil
		}
		if !docstore.IsNotFound(err) {
			return err
		}

		if p.Email == "" {
			return domain.ErrEmailRequired
		}
		result = domain.User{
			ID:          userID,
			Email:       p.Email,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			PhotoURL:    p.PhotoURL,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		return tx.Set(CollectionUsers, userID, encodeUser(result))
	})
	if err != nil {
		if domain.IsInvalidArgument(err) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("ensure profile %s: %w", userID, err)
	}

	return result, nil
}

// Get возвращает профиль пользователя.
func (s *Service) Get(ctx context.Context, userID string) (domain.User, error) {
	doc, err := s.store.Get(ctx, CollectionUsers, userID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return decodeUser(doc), nil
}

// IsAdmin сообщает, является ли пользователь администратором. Любая ошибка
// (включая отсутствие профиля) трактуется как отказ: авторизация fail-closed.
func (s *Service) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	doc, err := s.store.Get(ctx, CollectionUsers, userID)
	if err != nil {
		if !docstore.IsNotFound(err) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("admin check failed, denying")
		}
		return false
	}
	isAdmin, _ := docstore.GetBool(doc.Data, "isAdmin")
	return isAdmin
}

// PromoteToAdmin выдаёт пользователю права администратора.
func (s *Service) PromoteToAdmin(ctx context.Context, userID string) error {
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(CollectionUsers, userID, map[string]any{
			"isAdmin":    true,
			"promotedAt": docstore.EncodeTime(nowUTC()),
		})
	})
	if err != nil {
		if docstore.IsNotFound(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("promote user %s: %w", userID, err)
	}

	s.logger.WithField("user_id", userID).Info("user promoted to admin")
	return nil
}

func encodeUser(u domain.User) map[string]any {
	data := map[string]any{
		"email":       u.Email,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"photoURL":    u.PhotoURL,
		"isAdmin":     u.IsAdmin,
		"createdAt":   docstore.EncodeTime(u.CreatedAt),
		"lastLoginAt": docstore.EncodeTime(u.LastLoginAt),
	}
	if !u.PromotedAt.IsZero() {
		data["promotedAt"] = docstore.EncodeTime(u.PromotedAt)
	}
	return data
}

func decodeUser(doc docstore.Document) domain.User {
	u := domain.User{ID: doc.ID}
	u.Email, _ = docstore.GetString(doc.Data, "email")
	u.FirstName, _ = docstore.GetString(doc.Data, "firstName")
	u.LastName, _ = docstore.GetString(doc.Data, "lastName")
	u.PhotoURL, _ = docstore.GetString(doc.Data, "photoURL")
	u.IsAdmin, _ = docstore.GetBool(doc.Data, "isAdmin")
	if t, ok := docstore.GetTime(doc.Data, "createdAt"); ok {
		u.CreatedAt = t
	}
	if t, ok := docstore.GetTime(doc.Data, "lastLoginAt"); ok {
		u.LastLoginAt = t
	}
	if t, ok := docstore.GetTime(doc.Data, "promotedAt"); ok {
		u.PromotedAt = t
	}
	return u
}

// nowUTC вынесена для подмены времени в тестах.
var nowUTC = func() time.Time { return time.Now().UTC() }
