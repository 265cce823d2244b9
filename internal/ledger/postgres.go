package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizpot/quizpot/internal/domain"
)

// PostgresStore persists the transaction log to an append-only table.
//
// Expected schema:
//
//	CREATE TABLE transactions (
//	    transaction_id UUID PRIMARY KEY,
//	    player_id      TEXT NOT NULL,
//	    amount         BIGINT NOT NULL,
//	    kind           TEXT NOT NULL,
//	    room_id        TEXT,
//	    linked_room_id TEXT,
//	    memo           TEXT,
//	    create_time    TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Append(ctx context.Context, tx domain.Transaction) error {
	const stmt = `
INSERT INTO transactions (transaction_id, player_id, amount, kind, room_id, linked_room_id, memo, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := p.db.Exec(ctx, stmt,
		tx.ID, tx.PlayerID, tx.Amount, string(tx.Kind), tx.RoomID, tx.LinkedRoomID, tx.Memo, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}
