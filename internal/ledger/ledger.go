package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/telemetry"
)

// Store receives every recorded transaction, in order, for durability.
// The in-memory ledger remains authoritative for balances; a store must
// never mutate or delete an appended transaction.
type Store interface {
	Append(ctx context.Context, tx domain.Transaction) error
}

type Config struct {
	Store    Store
	EventBus *event.Bus
}

// Service is the only component permitted to mutate player balances. Every
// movement is recorded as an immutable transaction, and the check-then-debit
// sequence is atomic per player.
type Service struct {
	store Store
	eb    *event.Bus

	mu       sync.Mutex
	accounts map[string]*account
}

var nowFunc = time.Now

type account struct {
	mu      sync.Mutex
	balance int64
	history []domain.Transaction
}

func NewService(c Config) *Service {
	s := &Service{
		store:    c.Store,
		eb:       c.EventBus,
		accounts: make(map[string]*account),
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}

	return s
}

func (s *Service) account(playerID string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[playerID]
	if !ok {
		a = &account{}
		s.accounts[playerID] = a
	}

	return a
}

// Debit removes amount from the player's balance and records a transaction.
// It fails with InsufficientBalance if the balance cannot cover the amount;
// the balance check and the decrement are a single atomic step per player.
func (s *Service) Debit(ctx context.Context, playerID string, amount int64, kind domain.TransactionKind, roomID string) (domain.Transaction, error) {
	if amount < 0 {
		return domain.Transaction{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("debit amount must be non-negative, got %d", amount))
	}

	a := s.account(playerID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.balance < amount {
		return domain.Transaction{}, errors.NewReason(errors.ReasonInsufficientBalance,
			errors.WithMessagef("balance %d cannot cover %d", a.balance, amount))
	}

	return s.record(ctx, a, domain.Transaction{
		PlayerID: playerID,
		Amount:   -amount,
		Kind:     kind,
		RoomID:   roomID,
	})
}

// Credit adds amount to the player's balance and records a transaction.
func (s *Service) Credit(ctx context.Context, playerID string, amount int64, kind domain.TransactionKind, roomID string) (domain.Transaction, error) {
	if amount < 0 {
		return domain.Transaction{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("credit amount must be non-negative, got %d", amount))
	}

	a := s.account(playerID)
	a.mu.Lock()
	defer a.mu.Unlock()

	return s.record(ctx, a, domain.Transaction{
		PlayerID: playerID,
		Amount:   amount,
		Kind:     kind,
		RoomID:   roomID,
	})
}

// Restake records a double-down: winnings from fromRoomID are staked directly
// into toRoomID without ever landing in the balance. One transaction with a
// zero balance delta, so no window exists where a concurrent balance check
// could observe the winnings as spendable.
func (s *Service) Restake(ctx context.Context, playerID string, amount int64, fromRoomID, toRoomID string) (domain.Transaction, error) {
	if amount < 0 {
		return domain.Transaction{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("restake amount must be non-negative, got %d", amount))
	}

	a := s.account(playerID)
	a.mu.Lock()
	defer a.mu.Unlock()

	return s.record(ctx, a, domain.Transaction{
		PlayerID:     playerID,
		Amount:       0,
		Kind:         domain.TransactionDoubleDown,
		RoomID:       toRoomID,
		LinkedRoomID: fromRoomID,
		Memo:         fmt.Sprintf("re-staked %d from room %s", amount, fromRoomID),
	})
}

// record appends tx and applies its delta. Caller holds the account lock.
func (s *Service) record(ctx context.Context, a *account, tx domain.Transaction) (domain.Transaction, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Transaction{}, errors.Internal(fmt.Errorf("generate transaction ID: %w", err))
	}
	tx.ID = id.String()
	tx.CreatedAt = nowFunc()

	if err := s.store.Append(ctx, tx); err != nil {
		return domain.Transaction{}, errors.Internal(fmt.Errorf("append transaction: %w", err))
	}

	a.balance += tx.Amount
	a.history = append(a.history, tx)

	telemetry.TransactionsTotal.WithLabelValues(string(tx.Kind)).Inc()

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventTransactionRecorded{
			Transaction: tx,
			Balance:     a.balance,
		})
	}

	return tx, nil
}

// BalanceOf returns the player's current balance. Unknown players have a
// zero balance rather than an error; the ledger is the system's notion of
// player existence.
func (s *Service) BalanceOf(_ context.Context, playerID string) int64 {
	a := s.account(playerID)
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.balance
}

// History returns the player's transactions in chronological order.
func (s *Service) History(_ context.Context, playerID string) []domain.Transaction {
	a := s.account(playerID)
	a.mu.Lock()
	defer a.mu.Unlock()

	h := make([]domain.Transaction, len(a.history))
	copy(h, a.history)
	return h
}
