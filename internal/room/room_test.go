package room_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/ledger"
	"github.com/quizpot/quizpot/internal/room"
)

var ctx = context.Background()

// stubProvider hands out a fixed question list so tests know the answers.
type stubProvider struct {
	qs []domain.Question
}

func (p stubProvider) Questions(_ context.Context, _ string, count int, _ string) ([]domain.Question, error) {
	return p.qs[:count], nil
}

func twoQuestions() []domain.Question {
	return []domain.Question{
		{QuestionID: "q-1", Text: "first", Options: []string{"right", "wrong"}, CorrectIndex: 0},
		{QuestionID: "q-2", Text: "second", Options: []string{"wrong", "right"}, CorrectIndex: 1},
	}
}

func defaultSettings() domain.RoomSettings {
	return domain.RoomSettings{
		Name:              "test room",
		EntryFee:          100,
		MaxParticipants:   4,
		MinPlayersToStart: 2,
		QuestionCount:     2,
		QuestionTime:      200 * time.Millisecond,
		Distribution:      domain.DistributionWinnerTakeAll,
	}
}

func fastTiming() room.Timing {
	return room.Timing{
		StartCountdown:  time.Millisecond,
		QuestionGap:     time.Millisecond,
		DisconnectGrace: 20 * time.Millisecond,
		OfferWindow:     150 * time.Millisecond,
		Retention:       time.Hour,
	}
}

type fixture struct {
	ledger   *ledger.Service
	room     *room.Room
	terminal chan string
}

func newFixture(t *testing.T, settings domain.RoomSettings, chain room.ChainFunc) *fixture {
	t.Helper()

	f := &fixture{
		ledger:   ledger.NewService(ledger.Config{}),
		terminal: make(chan string, 1),
	}

	f.room = room.New(room.Config{
		ID:        "room-1",
		CreatorID: "p1",
		Settings:  settings,
		Ledger:    f.ledger,
		Questions: stubProvider{qs: twoQuestions()},
		Timing:    fastTiming(),
		Chain:     chain,
		OnTerminal: func(roomID string) {
			select {
			case f.terminal <- roomID:
			default:
			}
		},
	})
	t.Cleanup(f.room.Close)

	return f
}

func (f *fixture) fund(t *testing.T, playerID string, amount int64) {
	t.Helper()
	_, err := f.ledger.Credit(ctx, playerID, amount, domain.TransactionDeposit, "")
	require.NoError(t, err)
}

func (f *fixture) joinReady(t *testing.T, players ...string) {
	t.Helper()
	for _, p := range players {
		f.fund(t, p, 1000)
		require.NoError(t, f.room.Join(ctx, p))
		require.NoError(t, f.room.SetReady(ctx, p, true))
	}
}

func (f *fixture) waitState(t *testing.T, want domain.RoomState) domain.Room {
	t.Helper()
	var snap domain.Room
	require.Eventually(t, func() bool {
		s, err := f.room.Snapshot(ctx)
		if err != nil {
			return false
		}
		snap = s
		return s.State == want
	}, 2*time.Second, 2*time.Millisecond)
	return snap
}

func (f *fixture) waitQuestion(t *testing.T, idx int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := f.room.Snapshot(ctx)
		return err == nil && s.State == domain.RoomStateActive && s.QuestionIdx == idx
	}, 2*time.Second, 2*time.Millisecond)
}

func TestRoom_Join(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)

	require.NoError(t, f.room.Join(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p2"))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)

	require.Equal(t, domain.RoomStateWaiting, snap.State)
	require.Equal(t, int64(200), snap.PrizePool)
	require.Len(t, snap.Participants, 2)
	require.True(t, snap.Participants[0].IsHost, "first joiner is host")
	require.False(t, snap.Participants[1].IsHost)
	require.Equal(t, int64(100), snap.Participants[0].Wager)

	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p1"))
	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p2"))
}

func TestRoom_JoinInsufficientBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 50)

	err := f.room.Join(ctx, "p1")
	require.True(t, errors.IsReason(err, errors.ReasonInsufficientBalance))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Participants, "failed join must not seat the player")
	require.Equal(t, int64(0), snap.PrizePool)
	require.Equal(t, int64(50), f.ledger.BalanceOf(ctx, "p1"))
}

func TestRoom_JoinRejections(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.MaxParticipants = 2
	f := newFixture(t, settings, nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	f.fund(t, "p3", 1000)

	require.NoError(t, f.room.Join(ctx, "p1"))

	err := f.room.Join(ctx, "p1")
	require.Equal(t, errors.CodeAlreadyExists, errors.Convert(err).Code, "duplicate join")
	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p1"), "duplicate join must not debit")

	require.NoError(t, f.room.Join(ctx, "p2"))

	err = f.room.Join(ctx, "p3")
	require.True(t, errors.IsReason(err, errors.ReasonRoomFull))
	require.Equal(t, int64(1000), f.ledger.BalanceOf(ctx, "p3"), "rejected join must not debit")
}

func TestRoom_LeaveRefundsAndTransfersHost(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p2"))

	require.NoError(t, f.room.Leave(ctx, "p1"))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Participants, 1)
	require.Equal(t, "p2", snap.Participants[0].PlayerID)
	require.True(t, snap.Participants[0].IsHost, "host role moves to the earliest remaining joiner")
	require.Equal(t, int64(100), snap.PrizePool)

	require.Equal(t, int64(1000), f.ledger.BalanceOf(ctx, "p1"), "wager refunded in full")
}

func TestRoom_LastLeaveCancels(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))

	require.NoError(t, f.room.Leave(ctx, "p1"))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RoomStateCancelled, snap.State)
	require.NotNil(t, snap.EndedAt)
	require.Equal(t, int64(1000), f.ledger.BalanceOf(ctx, "p1"))

	select {
	case id := <-f.terminal:
		require.Equal(t, "room-1", id)
	case <-time.After(time.Second):
		t.Fatal("cancelled room was never handed to the registry for removal")
	}
}

func TestRoom_UpdateSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))

	changed := defaultSettings()
	changed.EntryFee = 300

	err := f.room.UpdateSettings(ctx, "p2", changed)
	require.True(t, errors.IsReason(err, errors.ReasonNotAuthorized), "non-host cannot update settings")

	require.NoError(t, f.room.UpdateSettings(ctx, "p1", changed))

	// The fee change applies to future joiners only.
	require.NoError(t, f.room.Join(ctx, "p2"))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), snap.Participants[0].Wager)
	require.Equal(t, int64(300), snap.Participants[1].Wager)
	require.Equal(t, int64(400), snap.PrizePool)
	require.Equal(t, int64(700), f.ledger.BalanceOf(ctx, "p2"))
}

func TestRoom_UpdateSettingsBelowCurrentCount(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.joinReady(t, "p1", "p2", "p3")

	changed := defaultSettings()
	changed.MaxParticipants = 2
	changed.MinPlayersToStart = 2

	err := f.room.UpdateSettings(ctx, "p1", changed)
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
}

func TestRoom_StartGuards(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))

	err := f.room.Start(ctx, "p1")
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "below min players")

	require.NoError(t, f.room.Join(ctx, "p2"))

	err = f.room.Start(ctx, "p2")
	require.True(t, errors.IsReason(err, errors.ReasonNotAuthorized), "only the host starts")

	err = f.room.Start(ctx, "p1")
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "everyone must be ready")

	require.NoError(t, f.room.SetReady(ctx, "p1", true))
	require.NoError(t, f.room.SetReady(ctx, "p2", true))
	require.NoError(t, f.room.Start(ctx, "p1"))

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RoomStateActive, snap.State)
	require.NotNil(t, snap.StartedAt)

	err = f.room.Start(ctx, "p1")
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "double start")

	err = f.room.Join(ctx, "p3")
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "no joining an active room")

	err = f.room.Leave(ctx, "p1")
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "no leaving an active room")
}

func TestRoom_SubmitAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))
	f.waitQuestion(t, 0)

	err := f.room.SubmitAnswer(ctx, "ghost", 0, 0, 0)
	require.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)

	err = f.room.SubmitAnswer(ctx, "p1", 1, 0, 0)
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code, "only the current question is answerable")

	err = f.room.SubmitAnswer(ctx, "p1", 0, 99, 0)
	require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code, "answer index out of range")

	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 0, 0, 0))

	err = f.room.SubmitAnswer(ctx, "p1", 0, 1, 0)
	require.True(t, errors.IsReason(err, errors.ReasonDuplicateAnswer), "first answer stands")

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	p1 := snap.Participants[0]
	require.Len(t, p1.Answers, 1)
	require.True(t, p1.Answers[0].Correct)
	require.Equal(t, int64(1000), p1.Score, "instant correct answer earns full base points")
}

func TestRoom_FullGame(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))

	// p1 answers both questions correctly, p2 neither. Submitting for every
	// connected player closes each question early.
	f.waitQuestion(t, 0)
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 0, 0, 0))
	require.NoError(t, f.room.SubmitAnswer(ctx, "p2", 0, 1, 0))

	f.waitQuestion(t, 1)
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 1, 1, 0))
	require.NoError(t, f.room.SubmitAnswer(ctx, "p2", 1, 0, 0))

	snap := f.waitState(t, domain.RoomStateCompleted)
	require.NotNil(t, snap.EndedAt)

	var winner, loser domain.Participant
	for _, p := range snap.Participants {
		if p.PlayerID == "p1" {
			winner = p
		} else {
			loser = p
		}
	}

	require.Equal(t, int64(2000), winner.Score)
	require.Equal(t, 1, winner.Position)
	require.NotNil(t, winner.Winnings)
	require.Equal(t, int64(200), *winner.Winnings)

	require.Equal(t, int64(0), loser.Score)
	require.Equal(t, 2, loser.Position)
	require.NotNil(t, loser.Winnings)
	require.Equal(t, int64(0), *loser.Winnings)

	require.Equal(t, int64(1100), f.ledger.BalanceOf(ctx, "p1"))
	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p2"))

	err := f.room.SubmitAnswer(ctx, "p1", 1, 1, 0)
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "completed rooms take no answers")
}

func TestRoom_SettlementRunsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))
	f.waitQuestion(t, 0)

	require.NoError(t, f.room.ForceComplete(ctx))
	f.waitState(t, domain.RoomStateCompleted)

	err := f.room.ForceComplete(ctx)
	require.True(t, errors.IsReason(err, errors.ReasonSettlementAlreadyPerformed))

	// Exactly one winning credit regardless of how often completion fires.
	var winnings int
	for _, tx := range f.ledger.History(ctx, "p1") {
		if tx.Kind == domain.TransactionWinning {
			winnings++
		}
	}
	require.Equal(t, 1, winnings)
	require.Equal(t, int64(1100), f.ledger.BalanceOf(ctx, "p1"))
}

func TestRoom_DisconnectGraceInWaiting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p2"))

	require.NoError(t, f.room.Disconnect(ctx, "p2"))

	require.Eventually(t, func() bool {
		s, err := f.room.Snapshot(ctx)
		return err == nil && len(s.Participants) == 1
	}, 2*time.Second, 2*time.Millisecond, "grace expiry removes the player")

	require.Equal(t, int64(1000), f.ledger.BalanceOf(ctx, "p2"), "implicit leave refunds")
}

func TestRoom_ReconnectCancelsGrace(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.fund(t, "p1", 1000)
	f.fund(t, "p2", 1000)
	require.NoError(t, f.room.Join(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p2"))

	require.NoError(t, f.room.Disconnect(ctx, "p2"))
	require.NoError(t, f.room.Reconnect(ctx, "p2"))

	time.Sleep(3 * fastTiming().DisconnectGrace)

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Participants, 2, "reconnected player must not be evicted by the stale timer")
	require.True(t, snap.Participants[1].Connected)
}

func TestRoom_DisconnectDuringGameKeepsStake(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))
	f.waitQuestion(t, 0)

	require.NoError(t, f.room.Disconnect(ctx, "p2"))

	// p1 alone is connected; its answers close each question early while p2
	// scores nothing.
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 0, 0, 0))
	f.waitQuestion(t, 1)
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 1, 1, 0))

	f.waitState(t, domain.RoomStateCompleted)

	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p2"), "no refund for dodging a loss")
	require.Equal(t, int64(1100), f.ledger.BalanceOf(ctx, "p1"))
}

func TestRoom_DoubleDownOffer(t *testing.T) {
	t.Parallel()

	type chainCall struct {
		winnerID   string
		winnings   int64
		fromRoomID string
	}
	chained := make(chan chainCall, 1)
	chain := func(_ context.Context, winnerID string, winnings int64, fromRoomID string, _ domain.RoomSettings) (string, error) {
		chained <- chainCall{winnerID: winnerID, winnings: winnings, fromRoomID: fromRoomID}
		return "room-2", nil
	}

	settings := defaultSettings()
	settings.AllowDoubleDown = true

	f := newFixture(t, settings, chain)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))

	f.waitQuestion(t, 0)
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 0, 0, 0))
	require.NoError(t, f.room.SubmitAnswer(ctx, "p2", 0, 1, 0))
	f.waitQuestion(t, 1)
	require.NoError(t, f.room.SubmitAnswer(ctx, "p1", 1, 1, 0))
	require.NoError(t, f.room.SubmitAnswer(ctx, "p2", 1, 0, 0))

	f.waitState(t, domain.RoomStateCompleted)

	// Winnings are held while the offer is open.
	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p1"))

	err := f.room.DoubleDownResponse(ctx, "p2", true)
	require.True(t, errors.IsReason(err, errors.ReasonNotAuthorized), "only the winner may respond")

	require.NoError(t, f.room.DoubleDownResponse(ctx, "p1", true))

	select {
	case got := <-chained:
		require.Equal(t, chainCall{winnerID: "p1", winnings: 200, fromRoomID: "room-1"}, got)
	case <-time.After(time.Second):
		t.Fatal("accepting the offer must create the rematch room")
	}

	// The re-stake never touches the balance.
	require.Equal(t, int64(900), f.ledger.BalanceOf(ctx, "p1"))

	err = f.room.DoubleDownResponse(ctx, "p1", true)
	require.True(t, errors.IsReason(err, errors.ReasonInvalidTransition), "offer is spent")
}

func TestRoom_DoubleDownDecline(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.AllowDoubleDown = true

	chain := func(context.Context, string, int64, string, domain.RoomSettings) (string, error) {
		t.Error("decline must not create a rematch")
		return "", nil
	}

	f := newFixture(t, settings, chain)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))
	f.waitQuestion(t, 0)
	require.NoError(t, f.room.ForceComplete(ctx))
	f.waitState(t, domain.RoomStateCompleted)

	require.NoError(t, f.room.DoubleDownResponse(ctx, "p1", false))

	require.Equal(t, int64(1100), f.ledger.BalanceOf(ctx, "p1"), "declined winnings are credited")
}

func TestRoom_DoubleDownExpiry(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.AllowDoubleDown = true

	chain := func(context.Context, string, int64, string, domain.RoomSettings) (string, error) {
		t.Error("expiry must not create a rematch")
		return "", nil
	}

	f := newFixture(t, settings, chain)
	f.joinReady(t, "p1", "p2")
	require.NoError(t, f.room.Start(ctx, "p1"))
	f.waitQuestion(t, 0)
	require.NoError(t, f.room.ForceComplete(ctx))
	f.waitState(t, domain.RoomStateCompleted)

	require.Eventually(t, func() bool {
		return f.ledger.BalanceOf(ctx, "p1") == 1100
	}, 2*time.Second, 5*time.Millisecond, "an unanswered offer settles as a decline")
}

// A player whose balance covers only one of two stakes must win exactly one
// of two concurrent joins into different rooms.
func TestRoom_NoDoubleDebitAcrossRooms(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		led := ledger.NewService(ledger.Config{})
		_, err := led.Credit(ctx, "p1", 150, domain.TransactionDeposit, "")
		require.NoError(t, err)

		rooms := make([]*room.Room, 2)
		for j := range rooms {
			rooms[j] = room.New(room.Config{
				ID:        "race-" + string(rune('a'+j)),
				Settings:  defaultSettings(),
				Ledger:    led,
				Questions: stubProvider{qs: twoQuestions()},
				Timing:    fastTiming(),
			})
		}

		errs := make(chan error, 2)
		for _, r := range rooms {
			r := r
			go func() { errs <- r.Join(ctx, "p1") }()
		}

		var ok, rejected int
		for j := 0; j < 2; j++ {
			if err := <-errs; err != nil {
				require.True(t, errors.IsReason(err, errors.ReasonInsufficientBalance))
				rejected++
			} else {
				ok++
			}
		}

		require.Equal(t, 1, ok)
		require.Equal(t, 1, rejected)
		require.Equal(t, int64(50), led.BalanceOf(ctx, "p1"))

		for _, r := range rooms {
			r.Close()
		}
	}
}

// Any series of joins and leaves in waiting must round-trip every balance.
func TestRoom_RefundRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, defaultSettings(), nil)
	players := []string{"p1", "p2", "p3", "p4"}
	for _, p := range players {
		f.fund(t, p, 1000)
	}

	require.NoError(t, f.room.Join(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p2"))
	require.NoError(t, f.room.Leave(ctx, "p1"))
	require.NoError(t, f.room.Join(ctx, "p3"))
	require.NoError(t, f.room.Join(ctx, "p4"))
	require.NoError(t, f.room.Leave(ctx, "p3"))
	require.NoError(t, f.room.Leave(ctx, "p2"))
	require.NoError(t, f.room.Leave(ctx, "p4"))

	for _, p := range players {
		require.Equal(t, int64(1000), f.ledger.BalanceOf(ctx, p), "player %s", p)
	}

	snap, err := f.room.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RoomStateCancelled, snap.State)
	require.Equal(t, int64(0), snap.PrizePool)
}

// A leave racing a start may land either way, but an under-populated active
// room is never a legal outcome.
func TestRoom_StartLeaveRace(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.MinPlayersToStart = 3

	for i := 0; i < 50; i++ {
		f := newFixture(t, settings, nil)
		f.joinReady(t, "p1", "p2", "p3")

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = f.room.Leave(ctx, "p3")
		}()
		startErr := f.room.Start(ctx, "p1")
		<-done

		snap, err := f.room.Snapshot(ctx)
		require.NoError(t, err)

		if startErr == nil {
			require.NotEqual(t, domain.RoomStateWaiting, snap.State)
			require.GreaterOrEqual(t, len(snap.Participants), 3)
		} else {
			require.True(t, errors.IsReason(startErr, errors.ReasonInvalidTransition))
			require.Len(t, snap.Participants, 2)
		}
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := defaultSettings()
	require.NoError(t, room.ValidateSettings(valid))

	tests := map[string]func(s *domain.RoomSettings){
		"negative entry fee":       func(s *domain.RoomSettings) { s.EntryFee = -1 },
		"max participants below 2": func(s *domain.RoomSettings) { s.MaxParticipants = 1 },
		"min players below 2":      func(s *domain.RoomSettings) { s.MinPlayersToStart = 1 },
		"min players above max":    func(s *domain.RoomSettings) { s.MinPlayersToStart = 5 },
		"zero questions":           func(s *domain.RoomSettings) { s.QuestionCount = 0 },
		"zero question time":       func(s *domain.RoomSettings) { s.QuestionTime = 0 },
		"unknown distribution":     func(s *domain.RoomSettings) { s.Distribution = "half-half" },
	}

	for name, mutate := range tests {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			s := defaultSettings()
			mutate(&s)

			err := room.ValidateSettings(s)
			require.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
		})
	}
}
