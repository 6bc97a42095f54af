// Package memory реализует docstore.Store поверх карт в памяти с optimistic
// concurrency: транзакция накапливает read set версий документов, коммит
// перепроверяет версии под мьютексом и срывается с ErrTxConflict, если
// конкурентная запись их инвалидировала. Используется в тестах и как
// драйвер по умолчанию для локальной разработки.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
)

// record хранит документ вместе с версией для проверки конфликтов.
type record struct {
	data    map[string]any
	version int64
}

// Store — in-memory реализация docstore.Store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*record
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]*record)}
}

// Get возвращает копию документа, чтобы избежать мутаций извне.
func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: copyData(rec.data)}, nil
}

// Query выполняет запрос: фильтры на равенство, сортировка по одному полю с
// тай-брейком по ID, курсор и лимит.
func (s *Store) Query(_ context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	cursor, hasCursor, err := docstore.DecodeCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	docs := make([]docstore.Document, 0, len(s.collections[collection]))
	for id, rec := range s.collections[collection] {
		if !matchesFilters(rec.data, q.Filters) {
			continue
		}
		docs = append(docs, docstore.Document{ID: id, Data: copyData(rec.data)})
	}
	s.mu.RUnlock()

	field := q.OrderBy.Field
	desc := q.OrderBy.Direction == docstore.Descending

	if field != "" {
		sort.Slice(docs, func(i, j int) bool {
			c := docstore.CompareValues(docs[i].Data[field], docs[j].Data[field])
			if c == 0 {
				c = compareStrings(docs[i].ID, docs[j].ID)
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}

	if hasCursor && field != "" {
		docs = afterCursor(docs, field, desc, cursor)
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

// afterCursor отбрасывает документы до позиции курсора включительно.
func afterCursor(docs []docstore.Document, field string, desc bool, cursor docstore.Cursor) []docstore.Document {
	for i, doc := range docs {
		c := docstore.CompareValues(doc.Data[field], cursor.Value)
		if c == 0 {
			c = compareStrings(doc.ID, cursor.ID)
		}
		if desc {
			c = -c
		}
		if c > 0 {
			return docs[i:]
		}
	}
	return nil
}

// RunTransaction выполняет fn с транзакционным handle. Чтения фиксируют
// версии (включая факт отсутствия документа); записи буферизуются и
// применяются на коммите только после перепроверки read set.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store: s,
		reads: make(map[docKey]int64),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

// Ping всегда успешен: хранилище живёт в том же процессе.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close освобождать нечего.
func (s *Store) Close() error { return nil }

type docKey struct {
	collection string
	id         string
}

type writeOp struct {
	key    docKey
	kind   writeKind
	data   map[string]any
	fields map[string]any
}

type writeKind int

const (
	writeSet writeKind = iota
	writeUpdate
	writeDelete
)

// versionAbsent фиксирует в read set факт отсутствия документа: его
// появление до коммита — тоже конфликт.
const versionAbsent = int64(-1)

// memTx реализует docstore.Tx с read-your-writes семантикой внутри транзакции.
type memTx struct {
	store  *Store
	reads  map[docKey]int64
	writes []writeOp
}

func (tx *memTx) Get(collection, id string) (docstore.Document, error) {
	key := docKey{collection, id}

	// Сначала смотрим на собственные буферизованные записи.
	if data, deleted, ok := tx.pendingState(key); ok {
		if deleted {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{ID: id, Data: copyData(data)}, nil
	}

	tx.store.mu.RLock()
	rec, ok := tx.store.collections[collection][id]
	var (
		version = versionAbsent
		data    map[string]any
	)
	if ok {
		version = rec.version
		data = copyData(rec.data)
	}
	tx.store.mu.RUnlock()

	if prev, seen := tx.reads[key]; !seen || prev == version {
		tx.reads[key] = version
	}

	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (tx *memTx) Set(collection, id string, data map[string]any) error {
	tx.writes = append(tx.writes, writeOp{
		key:  docKey{collection, id},
		kind: writeSet,
		data: copyData(data),
	})
	return nil
}

func (tx *memTx) Update(collection, id string, fields map[string]any) error {
	tx.writes = append(tx.writes, writeOp{
		key:    docKey{collection, id},
		kind:   writeUpdate,
		fields: copyData(fields),
	})
	return nil
}

func (tx *memTx) Delete(collection, id string) error {
	tx.writes = append(tx.writes, writeOp{
		key:  docKey{collection, id},
		kind: writeDelete,
	})
	return nil
}

// pendingState возвращает состояние документа с учётом буферизованных записей
// этой транзакции; ok=false, если транзакция его не трогала.
func (tx *memTx) pendingState(key docKey) (data map[string]any, deleted, ok bool) {
	for _, op := range tx.writes {
		if op.key != key {
			continue
		}
		switch op.kind {
		case writeSet:
			data, deleted, ok = copyData(op.data), false, true
		case writeDelete:
			data, deleted, ok = nil, true, true
		case writeUpdate:
			if !ok {
				// Update поверх незатронутого документа: базой служит
				// закоммиченное состояние.
				tx.store.mu.RLock()
				rec, exists := tx.store.collections[key.collection][key.id]
				if exists {
					data, ok = copyData(rec.data), true
				}
				tx.store.mu.RUnlock()
				if !ok {
					continue
				}
			}
			if deleted {
				continue
			}
			for k, v := range op.fields {
				data[k] = v
			}
		}
	}
	return data, deleted, ok
}

// commit валидирует read set и цели update, затем применяет записи. Любая
// инвалидация возвращает ErrTxConflict или ErrNotFound без частичного
// применения.
func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, seen := range tx.reads {
		current := versionAbsent
		if rec, ok := s.collections[key.collection][key.id]; ok {
			current = rec.version
		}
		if current != seen {
			return docstore.ErrTxConflict
		}
	}

	// Update требует существующий документ с учётом более ранних записей
	// этой же транзакции.
	exists := func(key docKey, upTo int) bool {
		_, present := s.collections[key.collection][key.id]
		for i := 0; i < upTo; i++ {
			op := tx.writes[i]
			if op.key != key {
				continue
			}
			switch op.kind {
			case writeSet:
				present = true
			case writeDelete:
				present = false
			}
		}
		return present
	}
	for i, op := range tx.writes {
		if op.kind == writeUpdate && !exists(op.key, i) {
			return docstore.ErrNotFound
		}
	}

	for _, op := range tx.writes {
		coll := s.collections[op.key.collection]
		if coll == nil {
			coll = make(map[string]*record)
			s.collections[op.key.collection] = coll
		}
		switch op.kind {
		case writeSet:
			next := int64(1)
			if rec, ok := coll[op.key.id]; ok {
				next = rec.version + 1
			}
			coll[op.key.id] = &record{data: copyData(op.data), version: next}
		case writeUpdate:
			rec := coll[op.key.id]
			merged := copyData(rec.data)
			for k, v := range op.fields {
				merged[k] = v
			}
			coll[op.key.id] = &record{data: merged, version: rec.version + 1}
		case writeDelete:
			delete(coll, op.key.id)
		}
	}

	return nil
}

func matchesFilters(data map[string]any, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := data[field]
		if !ok || docstore.CompareValues(got, want) != 0 || !sameKind(got, want) {
			return false
		}
	}
	return true
}

// sameKind защищает фильтры от случайного совпадения разнотипных значений
// (CompareValues даёт тотальный порядок, а фильтру нужно строгое равенство).
func sameKind(a, b any) bool {
	return typeOf(a) == typeOf(b)
}

func typeOf(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int32, int64, float32, float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// copyData делает глубокую копию по картам и слайсам: документы заказов несут
// вложенные снапшоты позиций, и разделять их между хранилищем и вызывающим
// кодом нельзя.
func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return copyData(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

var _ docstore.Store = (*Store)(nil)
