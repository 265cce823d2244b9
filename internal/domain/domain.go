package domain

import (
	"time"
)

// RoomState is the lifecycle state of a trivia room.
type RoomState string

const (
	RoomStateWaiting   RoomState = "waiting"
	RoomStateActive    RoomState = "active"
	RoomStateCompleted RoomState = "completed"
	RoomStateCancelled RoomState = "cancelled"
)

// DistributionRule decides how a room's prize pool splits among participants.
type DistributionRule string

const (
	DistributionWinnerTakeAll DistributionRule = "winner-take-all"
	DistributionTop3          DistributionRule = "top3"
	DistributionProportional  DistributionRule = "proportional"
)

// RoomSettings are the host-configurable parameters of a room.
// EntryFee changes apply to future joiners only; a participant's wager is
// fixed at join time.
type RoomSettings struct {
	Name              string
	EntryFee          int64
	MaxParticipants   int
	MinPlayersToStart int
	QuestionCount     int
	QuestionTime      time.Duration
	Distribution      DistributionRule
	AllowDoubleDown   bool
	Difficulty        string
	Category          string
}

// Answer records one scored submission for one question.
type Answer struct {
	QuestionID     string
	QuestionIndex  int
	AnswerIndex    int
	Correct        bool
	ElapsedSeconds float64
	Points         int64
}

// Participant is a player's per-room state. The authoritative balance lives
// in the ledger; Wager is the amount actually debited at join time.
type Participant struct {
	PlayerID  string
	IsHost    bool
	Ready     bool
	Connected bool
	JoinedAt  time.Time
	Wager     int64
	Score     int64
	Position  int // 0 until the room completes, then 1..N
	Answers   []Answer
	Winnings  *int64 // nil until payout is computed
}

// Room is a read-only snapshot of one trivia session. The live state is owned
// by the room actor; everything handed to clients is a copy.
type Room struct {
	ID           string
	CreatorID    string
	Settings     RoomSettings
	State        RoomState
	PrizePool    int64
	Participants []Participant
	QuestionIdx  int
	CreatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
}

// Question is trivia content supplied by an external provider.
type Question struct {
	QuestionID   string
	Text         string
	Options      []string
	CorrectIndex int
	Difficulty   string
	Category     string
}

// TransactionKind classifies a ledger transaction.
type TransactionKind string

const (
	TransactionBet        TransactionKind = "bet"
	TransactionWinning    TransactionKind = "winning"
	TransactionDoubleDown TransactionKind = "double_down"
	TransactionDeposit    TransactionKind = "deposit"
	TransactionWithdraw   TransactionKind = "withdraw"
)

// Transaction is one immutable ledger entry. Amount is the signed balance
// delta: negative for debits, positive for credits, zero for a double-down
// re-stake (winnings that never land in the balance). LinkedRoomID carries
// the prior room of a double-down chain.
type Transaction struct {
	ID           string
	PlayerID     string
	Amount       int64
	Kind         TransactionKind
	RoomID       string
	LinkedRoomID string
	Memo         string
	CreatedAt    time.Time
}

// Standing is one row of a completed room's final ranking.
type Standing struct {
	PlayerID string
	Position int
	Score    int64
	Winnings int64
}

// LifetimeStanding is one row of the cross-room standings board.
type LifetimeStanding struct {
	PlayerID string
	Winnings int64
	Wins     int64
}
