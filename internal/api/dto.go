package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/quizpot/quizpot/internal/domain"
)

type settingsView struct {
	Name              string `json:"name"`
	EntryFee          int64  `json:"entry_fee"`
	MaxParticipants   int    `json:"max_participants"`
	MinPlayersToStart int    `json:"min_players_to_start"`
	QuestionCount     int    `json:"question_count"`
	QuestionTimeSec   int    `json:"question_time_seconds"`
	Distribution      string `json:"distribution"`
	AllowDoubleDown   bool   `json:"allow_double_down"`
	Difficulty        string `json:"difficulty,omitempty"`
	Category          string `json:"category,omitempty"`
}

func (v settingsView) toSettings() domain.RoomSettings {
	return domain.RoomSettings{
		Name:              v.Name,
		EntryFee:          v.EntryFee,
		MaxParticipants:   v.MaxParticipants,
		MinPlayersToStart: v.MinPlayersToStart,
		QuestionCount:     v.QuestionCount,
		QuestionTime:      time.Duration(v.QuestionTimeSec) * time.Second,
		Distribution:      domain.DistributionRule(v.Distribution),
		AllowDoubleDown:   v.AllowDoubleDown,
		Difficulty:        v.Difficulty,
		Category:          v.Category,
	}
}

func toSettingsView(s domain.RoomSettings) settingsView {
	return settingsView{
		Name:              s.Name,
		EntryFee:          s.EntryFee,
		MaxParticipants:   s.MaxParticipants,
		MinPlayersToStart: s.MinPlayersToStart,
		QuestionCount:     s.QuestionCount,
		QuestionTimeSec:   int(s.QuestionTime / time.Second),
		Distribution:      string(s.Distribution),
		AllowDoubleDown:   s.AllowDoubleDown,
		Difficulty:        s.Difficulty,
		Category:          s.Category,
	}
}

type participantView struct {
	PlayerID string `json:"player_id"`
	IsHost   bool   `json:"is_host"`
	Ready    bool   `json:"ready"`
	Score    int64  `json:"score"`
	Wager    int64  `json:"wager"`
	Position int    `json:"position,omitempty"`
	Winnings *int64 `json:"winnings,omitempty"`
}

type roomView struct {
	ID           string            `json:"id"`
	CreatorID    string            `json:"creator_id"`
	State        string            `json:"state"`
	PrizePool    int64             `json:"prize_pool"`
	Settings     settingsView      `json:"settings"`
	Participants []participantView `json:"participants"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
}

func toRoomView(r domain.Room) roomView {
	return roomView{
		ID:        r.ID,
		CreatorID: r.CreatorID,
		State:     string(r.State),
		PrizePool: r.PrizePool,
		Settings:  toSettingsView(r.Settings),
		Participants: lo.Map(r.Participants, func(p domain.Participant, _ int) participantView {
			return participantView{
				PlayerID: p.PlayerID,
				IsHost:   p.IsHost,
				Ready:    p.Ready,
				Score:    p.Score,
				Wager:    p.Wager,
				Position: p.Position,
				Winnings: p.Winnings,
			}
		}),
		CreatedAt: r.CreatedAt,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

type standingRowView struct {
	PlayerID string `json:"player_id"`
	Winnings int64  `json:"winnings"`
	Wins     int64  `json:"wins"`
}

func toStandingRowView(s domain.LifetimeStanding) standingRowView {
	return standingRowView{
		PlayerID: s.PlayerID,
		Winnings: s.Winnings,
		Wins:     s.Wins,
	}
}

type transactionView struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	RoomID       string    `json:"room_id,omitempty"`
	LinkedRoomID string    `json:"linked_room_id,omitempty"`
	Memo         string    `json:"memo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionView(tx domain.Transaction) transactionView {
	return transactionView{
		ID:           tx.ID,
		Amount:       tx.Amount,
		Kind:         string(tx.Kind),
		RoomID:       tx.RoomID,
		LinkedRoomID: tx.LinkedRoomID,
		Memo:         tx.Memo,
		CreatedAt:    tx.CreatedAt,
	}
}
