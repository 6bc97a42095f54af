package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
)

const txTimeout = 10 * time.Second

// RunTransaction выполняет fn в SERIALIZABLE-транзакции. Конфликт
// сериализации возвращается как docstore.ErrTxConflict; частичного
// применения не бывает — rollback на любой ошибке.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	sqlTx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapError("begin tx", err)
	}

	handle := &pgTx{ctx: txCtx, tx: sqlTx}
	if err := fn(handle); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return mapError("commit tx", err)
	}
	return nil
}

// pgTx реализует docstore.Tx поверх *sql.Tx.
type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) Get(collection, id string) (docstore.Document, error) {
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT doc FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, mapError("tx select document", err)
	}

	data, err := decodeDoc(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (t *pgTx) Set(collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document payload: %w", err)
	}

	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET doc = EXCLUDED.doc,
		    version = documents.version + 1,
		    updated_at = NOW()
	`, collection, id, string(raw))
	if err != nil {
		return mapError("tx set document", err)
	}
	return nil
}

func (t *pgTx) Update(collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update fields: %w", err)
	}

	// jsonb-конкатенация даёт shallow merge по верхнему уровню — та же
	// семантика, что у Update in-memory реализации.
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE documents
		SET doc = doc || $3::jsonb,
		    version = version + 1,
		    updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(raw))
	if err != nil {
		return mapError("tx update document", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tx update rows affected: %w", err)
	}
	if affected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (t *pgTx) Delete(collection, id string) error {
	if _, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id); err != nil {
		return mapError("tx delete document", err)
	}
	return nil
}

var _ docstore.Tx = (*pgTx)(nil)
