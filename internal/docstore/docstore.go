// Package docstore задаёт минимальный контракт транзакционного документного
// хранилища, на которое опирается витрина: get/query по коллекциям и атомарные
// транзакции с set/update. Конкретные реализации живут в подпакетах memory и
// postgres; вся доменная логика зависит только от этого контракта.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound возвращается, если документ отсутствует в коллекции.
	ErrNotFound = errors.New("document not found")
	// ErrTxConflict сигнализирует о конфликте конкурентных транзакций:
	// записи одной из них инвалидировали read set другой. Ретрай — на вызывающей стороне.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrUnavailable — сетевая или инфраструктурная недоступность хранилища.
	ErrUnavailable = errors.New("document store unavailable")
	// ErrInvalidCursor возвращается при нечитаемом курсоре пагинации.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// IsConflict проверяет, является ли ошибка транзакционным конфликтом.
func IsConflict(err error) bool {
	return errors.Is(err, ErrTxConflict)
}

// IsNotFound проверяет, является ли ошибка отсутствием документа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable проверяет, является ли ошибка недоступностью хранилища.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Document — документ коллекции: идентификатор плюс маппинг полей.
// Значения ограничены JSON-представимыми типами; время кодируется строкой
// фиксированной ширины (EncodeTime), чтобы лексикографический порядок совпадал
// с хронологическим в обеих реализациях.
type Document struct {
	ID   string
	Data map[string]any
}

// Direction задаёт направление сортировки.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// OrderBy описывает сортировку по одному полю документа.
type OrderBy struct {
	Field     string
	Direction Direction
}

// Query описывает индексируемый запрос: фильтры на равенство, сортировка по
// одному полю, лимит и opaque-курсор (позиция последнего документа предыдущей
// страницы).
type Query struct {
	Filters map[string]any
	OrderBy OrderBy
	Limit   int
	Cursor  string
}

// Tx — транзакционный handle. Все операции видят согласованное состояние;
// запись применяется атомарно при коммите или не применяется вовсе.
type Tx interface {
	// Get возвращает документ или ErrNotFound. Чтение попадает в read set
	// транзакции и участвует в проверке конфликтов.
	Get(collection, id string) (Document, error)
	// Set полностью записывает документ (создаёт или перезаписывает).
	Set(collection, id string, data map[string]any) error
	// Update вливает поля в существующий документ (shallow merge по верхнему
	// уровню). Отсутствие документа срывает транзакцию с ErrNotFound.
	Update(collection, id string, fields map[string]any) error
	// Delete удаляет документ; отсутствие не считается ошибкой.
	Delete(collection, id string) error
}

// Store — клиент документного хранилища.
type Store interface {
	// Get возвращает документ вне транзакции или ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Query выполняет индексируемый запрос и возвращает упорядоченную страницу.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// RunTransaction выполняет fn в атомарной транзакции. Конфликт
	// конкурентной записи возвращается как ErrTxConflict без частичного
	// применения.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
	// Close освобождает ресурсы клиента.
	Close() error
}

// RunInTxWithRetry выполняет fn через RunTransaction, повторяя попытку при
// ErrTxConflict до attempts раз. attempts <= 1 означает одну попытку —
// политика по умолчанию: ретрай остаётся на вызывающей стороне.
func RunInTxWithRetry(ctx context.Context, store Store, attempts int, fn func(tx Tx) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = store.RunTransaction(ctx, fn)
		if err == nil || !IsConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
