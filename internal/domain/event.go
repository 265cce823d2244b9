package domain

import "time"

const (
	EventNameRoomUpdated         = "room.updated"
	EventNamePlayerJoined        = "room.player_joined"
	EventNamePlayerLeft          = "room.player_left"
	EventNamePlayerReady         = "room.player_ready"
	EventNameGameStarted         = "room.game_started"
	EventNameQuestionStarted     = "room.question_started"
	EventNameQuestionResult      = "room.question_result"
	EventNameGameCompleted       = "room.game_completed"
	EventNameDoubleDownOffer     = "room.double_down_offer"
	EventNameTransactionRecorded = "ledger.transaction_recorded"
)

type EventRoomUpdated struct {
	Room Room
}

func (EventRoomUpdated) Name() string { return EventNameRoomUpdated }

type EventPlayerJoined struct {
	RoomID   string
	PlayerID string
	Wager    int64
}

func (EventPlayerJoined) Name() string { return EventNamePlayerJoined }

type EventPlayerLeft struct {
	RoomID   string
	PlayerID string
	Refunded int64
}

func (EventPlayerLeft) Name() string { return EventNamePlayerLeft }

type EventPlayerReady struct {
	RoomID   string
	PlayerID string
	Ready    bool
}

func (EventPlayerReady) Name() string { return EventNamePlayerReady }

type EventGameStarted struct {
	RoomID           string
	CountdownSeconds int
	QuestionCount    int
}

func (EventGameStarted) Name() string { return EventNameGameStarted }

// EventQuestionStarted carries the question as shown to clients, without the
// correct index.
type EventQuestionStarted struct {
	RoomID        string
	QuestionIndex int
	QuestionID    string
	Text          string
	Options       []string
	Deadline      time.Time
}

func (EventQuestionStarted) Name() string { return EventNameQuestionStarted }

type EventQuestionResult struct {
	RoomID        string
	QuestionIndex int
	CorrectIndex  int
	Points        map[string]int64
}

func (EventQuestionResult) Name() string { return EventNameQuestionResult }

type EventGameCompleted struct {
	RoomID    string
	Standings []Standing
	PrizePool int64
}

func (EventGameCompleted) Name() string { return EventNameGameCompleted }

type EventDoubleDownOffer struct {
	RoomID    string
	WinnerID  string
	Amount    int64
	ExpiresAt time.Time
}

func (EventDoubleDownOffer) Name() string { return EventNameDoubleDownOffer }

type EventTransactionRecorded struct {
	Transaction Transaction
	Balance     int64
}

func (EventTransactionRecorded) Name() string { return EventNameTransactionRecorded }
