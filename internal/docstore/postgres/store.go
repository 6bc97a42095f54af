// Package postgres реализует docstore.Store поверх PostgreSQL: документы
// лежат в jsonb-таблице documents, транзакции выполняются в SERIALIZABLE и
// конфликт сериализации отображается в docstore.ErrTxConflict.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

// fieldNamePattern ограничивает имена сортировочных полей: они интерполируются
// в SQL как jsonb-ключи и не должны приходить извне в произвольном виде.
var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open открывает подключение и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", docstore.ErrUnavailable, err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get возвращает документ коллекции или docstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var raw []byte
	err := s.db.QueryRowContext(opCtx, `
		SELECT doc FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, mapError("select document", err)
	}

	data, err := decodeDoc(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data}, nil
}

// Query выполняет индексируемый запрос. Фильтры на равенство компилируются в
// jsonb-containment, сортировка — в ORDER BY doc->'field' (jsonb сравнивает
// числа численно, строки лексикографически), курсор — в row-wise сравнение.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	cursor, hasCursor, err := docstore.DecodeCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, doc FROM documents WHERE collection = $1`)
	args = append(args, collection)

	if len(q.Filters) > 0 {
		filterJSON, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("marshal query filters: %w", err)
		}
		args = append(args, string(filterJSON))
		fmt.Fprintf(&sb, ` AND doc @> $%d::jsonb`, len(args))
	}

	field := q.OrderBy.Field
	if field != "" && !fieldNamePattern.MatchString(field) {
		return nil, fmt.Errorf("invalid order-by field %q", field)
	}
	desc := q.OrderBy.Direction == docstore.Descending

	if hasCursor && field != "" {
		cursorJSON, err := json.Marshal(cursor.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", docstore.ErrInvalidCursor, err)
		}
		op := ">"
		if desc {
			op = "<"
		}
		args = append(args, string(cursorJSON))
		valIdx := len(args)
		args = append(args, cursor.ID)
		fmt.Fprintf(&sb, ` AND (doc->'%s', id) %s ($%d::jsonb, $%d)`, field, op, valIdx, len(args))
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if field != "" {
		fmt.Fprintf(&sb, ` ORDER BY doc->'%s' %s, id %s`, field, dir, dir)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %d`, q.Limit)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(opCtx, sb.String(), args...)
	if err != nil {
		return nil, mapError("query documents", err)
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		data, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate document rows", err)
	}

	return docs, nil
}

func decodeDoc(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document payload: %w", err)
	}
	return data, nil
}

// mapError переводит ошибки драйвера в таксономию docstore.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return fmt.Errorf("%w: %s: %v", docstore.ErrTxConflict, op, err)
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %s: %v", docstore.ErrTxConflict, op, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %s: %v", docstore.ErrUnavailable, op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %s: %v", docstore.ErrUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ docstore.Store = (*Store)(nil)
