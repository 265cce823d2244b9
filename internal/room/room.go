package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/ledger"
	"github.com/quizpot/quizpot/internal/question"
	"github.com/quizpot/quizpot/internal/telemetry"
)

// Timing holds the room's logical deadlines. Zero fields take defaults.
type Timing struct {
	StartCountdown  time.Duration
	QuestionGap     time.Duration
	DisconnectGrace time.Duration
	OfferWindow     time.Duration
	Retention       time.Duration
}

// Scoring parameterizes the time-decayed points formula
// points = max(MinPoints, BasePoints − elapsedSeconds×DecayPerSecond)
// for a correct answer, 0 otherwise. Zero fields take defaults.
type Scoring struct {
	BasePoints     int64
	MinPoints      int64
	DecayPerSecond int64
}

// ChainFunc creates the double-or-nothing rematch room for a winner,
// returning the new room's ID. Injected by the double-down coordinator.
type ChainFunc func(ctx context.Context, winnerID string, winnings int64, fromRoomID string, prior domain.RoomSettings) (string, error)

type Config struct {
	ID        string
	CreatorID string
	Settings  domain.RoomSettings
	Ledger    *ledger.Service
	EventBus  *event.Bus
	Questions question.Provider
	Timing    Timing
	Scoring   Scoring
	Chain     ChainFunc
	// OnTerminal is called once the room should leave the registry:
	// immediately on cancellation, after the display retention on completion.
	OnTerminal func(roomID string)
}

type participant struct {
	domain.Participant
	// bumped on reconnect so a stale grace timer cannot evict the player
	disconnectSeq int
}

// Room is one trivia session. All state mutations run on a single goroutine
// fed by a mailbox, so operations on the same room are serialized in arrival
// order while different rooms proceed in parallel.
type Room struct {
	cfg Config
	log *slog.Logger

	mailbox chan call
	closed  chan struct{}

	// Everything below is owned by the run loop.
	state        domain.RoomState
	settings     domain.RoomSettings
	participants []*participant
	prizePool    int64
	createdAt    time.Time
	startedAt    *time.Time
	endedAt      *time.Time

	questions  []domain.Question
	qIdx       int
	qStartedAt time.Time
	qDeadline  time.Time
	qClosed    bool

	settled bool
	halted  bool
	offer   *pendingOffer
}

type pendingOffer struct {
	winnerID  string
	amount    int64
	expiresAt time.Time
}

type call struct {
	fn   func() error
	errc chan error
}

func New(c Config) *Room {
	if c.Timing.StartCountdown == 0 {
		c.Timing.StartCountdown = 3 * time.Second
	}
	if c.Timing.QuestionGap == 0 {
		c.Timing.QuestionGap = 2 * time.Second
	}
	if c.Timing.DisconnectGrace == 0 {
		c.Timing.DisconnectGrace = 30 * time.Second
	}
	if c.Timing.OfferWindow == 0 {
		c.Timing.OfferWindow = 30 * time.Second
	}
	if c.Timing.Retention == 0 {
		c.Timing.Retention = time.Minute
	}
	if c.Scoring.BasePoints == 0 {
		c.Scoring.BasePoints = 1000
	}
	if c.Scoring.MinPoints == 0 {
		c.Scoring.MinPoints = 100
	}
	if c.Scoring.DecayPerSecond == 0 {
		c.Scoring.DecayPerSecond = 50
	}

	r := &Room{
		cfg:       c,
		log:       slog.Default().With("room", c.ID),
		mailbox:   make(chan call),
		closed:    make(chan struct{}),
		state:     domain.RoomStateWaiting,
		settings:  c.Settings,
		createdAt: time.Now(),
		qIdx:      -1,
	}

	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case c := <-r.mailbox:
			c.errc <- c.fn()
		case <-r.closed:
			return
		}
	}
}

// do runs fn on the room's goroutine and waits for its result.
func (r *Room) do(ctx context.Context, fn func() error) error {
	c := call{fn: fn, errc: make(chan error, 1)}

	select {
	case r.mailbox <- c:
	case <-r.closed:
		return errors.NewReason(errors.ReasonRoomNotFound,
			errors.WithMessagef("room %s is gone", r.cfg.ID))
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// async posts fn without waiting. Used by timer expiries, which are just
// serialized events like any other.
func (r *Room) async(fn func() error) {
	go func() {
		if err := r.do(context.Background(), fn); err != nil {
			if errors.Convert(err).Code == errors.CodeInternal {
				r.log.Error("room: deferred op failed", "error", err)
			}
		}
	}()
}

func (r *Room) after(d time.Duration, fn func() error) {
	time.AfterFunc(d, func() { r.async(fn) })
}

// Close stops the room's goroutine. Pending and future operations fail with
// RoomNotFound.
func (r *Room) Close() {
	select {
	case <-r.closed:
	default:
		close(r.closed)
	}
}

func (r *Room) ID() string { return r.cfg.ID }

// Snapshot returns a deep copy of the room's current state.
func (r *Room) Snapshot(ctx context.Context) (domain.Room, error) {
	var snap domain.Room
	err := r.do(ctx, func() error {
		snap = r.snapshot()
		return nil
	})
	return snap, err
}

func (r *Room) snapshot() domain.Room {
	snap := domain.Room{
		ID:          r.cfg.ID,
		CreatorID:   r.cfg.CreatorID,
		Settings:    r.settings,
		State:       r.state,
		PrizePool:   r.prizePool,
		QuestionIdx: r.qIdx,
		CreatedAt:   r.createdAt,
		StartedAt:   r.startedAt,
		EndedAt:     r.endedAt,
	}

	snap.Participants = lo.Map(r.participants, func(p *participant, _ int) domain.Participant {
		cp := p.Participant
		cp.Answers = append([]domain.Answer(nil), p.Answers...)
		if p.Winnings != nil {
			w := *p.Winnings
			cp.Winnings = &w
		}
		return cp
	})

	return snap
}

// Join debits the room's current entry fee from the player and appends them
// to the participant list. The first joiner becomes host.
func (r *Room) Join(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		return r.admit(ctx, playerID, func() (int64, error) {
			fee := r.settings.EntryFee
			if _, err := r.cfg.Ledger.Debit(ctx, playerID, fee, domain.TransactionBet, r.cfg.ID); err != nil {
				return 0, err
			}
			return fee, nil
		})
	})
}

// JoinFunded admits a double-down winner whose stake is re-staked winnings
// rather than a fresh debit.
func (r *Room) JoinFunded(ctx context.Context, playerID string, stake int64, fromRoomID string) error {
	return r.do(ctx, func() error {
		return r.admit(ctx, playerID, func() (int64, error) {
			if _, err := r.cfg.Ledger.Restake(ctx, playerID, stake, fromRoomID, r.cfg.ID); err != nil {
				return 0, err
			}
			return stake, nil
		})
	})
}

// admit performs the shared join path. stakeFn records the ledger movement
// and returns the wager fixed for this participant.
func (r *Room) admit(ctx context.Context, playerID string, stakeFn func() (int64, error)) error {
	if r.halted {
		return errors.Internal(fmt.Errorf("room %s is halted", r.cfg.ID))
	}
	if r.state != domain.RoomStateWaiting {
		return errors.NewReason(errors.ReasonInvalidTransition,
			errors.WithMessagef("cannot join a %s room", r.state))
	}
	if len(r.participants) >= r.settings.MaxParticipants {
		return errors.NewReason(errors.ReasonRoomFull,
			errors.WithMessagef("room %s is full (%d participants)", r.cfg.ID, len(r.participants)))
	}
	if r.find(playerID) != nil {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("player %s already joined room %s", playerID, r.cfg.ID))
	}

	wager, err := stakeFn()
	if err != nil {
		return err
	}

	r.participants = append(r.participants, &participant{
		Participant: domain.Participant{
			PlayerID:  playerID,
			IsHost:    len(r.participants) == 0,
			Connected: true,
			JoinedAt:  time.Now(),
			Wager:     wager,
		},
	})
	r.recomputePool()

	r.publish(ctx, domain.EventPlayerJoined{RoomID: r.cfg.ID, PlayerID: playerID, Wager: wager})
	r.publishUpdated(ctx)
	return nil
}

// Leave refunds the player's wager and removes them. Only legal while
// waiting; a mid-game exit is a disconnect, not a leave.
func (r *Room) Leave(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		return r.leave(ctx, playerID)
	})
}

func (r *Room) leave(ctx context.Context, playerID string) error {
	if r.state != domain.RoomStateWaiting {
		return errors.NewReason(errors.ReasonInvalidTransition,
			errors.WithMessagef("cannot leave a %s room", r.state))
	}

	p := r.find(playerID)
	if p == nil {
		return errors.New(errors.CodeNotFound,
			errors.WithMessagef("player %s not in room %s", playerID, r.cfg.ID))
	}

	// Refund is a reversal of the join debit: same kind, positive amount.
	if _, err := r.cfg.Ledger.Credit(ctx, playerID, p.Wager, domain.TransactionBet, r.cfg.ID); err != nil {
		return err
	}

	wasHost := p.IsHost
	r.participants = lo.Reject(r.participants, func(q *participant, _ int) bool {
		return q.PlayerID == playerID
	})
	r.recomputePool()

	if wasHost && len(r.participants) > 0 {
		// Deterministic transfer: the slice is join-ordered.
		r.participants[0].IsHost = true
	}

	r.publish(ctx, domain.EventPlayerLeft{RoomID: r.cfg.ID, PlayerID: playerID, Refunded: p.Wager})

	if len(r.participants) == 0 {
		r.cancel(ctx)
		return nil
	}

	r.publishUpdated(ctx)
	return nil
}

// cancel moves an emptied waiting room to its terminal state. All wagers have
// been refunded by the preceding leave path.
func (r *Room) cancel(ctx context.Context) {
	r.state = domain.RoomStateCancelled
	now := time.Now()
	r.endedAt = &now

	telemetry.RoomsCancelledTotal.Inc()
	r.publishUpdated(ctx)

	if r.cfg.OnTerminal != nil {
		go r.cfg.OnTerminal(r.cfg.ID)
	}
}

func (r *Room) SetReady(ctx context.Context, playerID string, ready bool) error {
	return r.do(ctx, func() error {
		if r.state != domain.RoomStateWaiting {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("cannot change readiness in a %s room", r.state))
		}

		p := r.find(playerID)
		if p == nil {
			return errors.New(errors.CodeNotFound,
				errors.WithMessagef("player %s not in room %s", playerID, r.cfg.ID))
		}

		p.Ready = ready
		r.publish(ctx, domain.EventPlayerReady{RoomID: r.cfg.ID, PlayerID: playerID, Ready: ready})
		r.publishUpdated(ctx)
		return nil
	})
}

// UpdateSettings replaces the room settings. Host only, waiting only. A fee
// change applies to future joiners; recorded wagers are never rewritten.
func (r *Room) UpdateSettings(ctx context.Context, hostID string, s domain.RoomSettings) error {
	return r.do(ctx, func() error {
		if r.state != domain.RoomStateWaiting {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("cannot update settings of a %s room", r.state))
		}
		if err := r.requireHost(hostID); err != nil {
			return err
		}
		if err := ValidateSettings(s); err != nil {
			return err
		}
		if s.MaxParticipants < len(r.participants) {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("max participants %d below current count %d", s.MaxParticipants, len(r.participants)))
		}

		r.settings = s
		r.publishUpdated(ctx)
		return nil
	})
}

// Start is the point of no return: the all-ready and min-players checks and
// the flip to active happen in one serialized step, so a racing leave or
// un-ready can never produce an under-populated active room.
func (r *Room) Start(ctx context.Context, hostID string) error {
	return r.do(ctx, func() error {
		if r.state != domain.RoomStateWaiting {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("cannot start a %s room", r.state))
		}
		if err := r.requireHost(hostID); err != nil {
			return err
		}
		if len(r.participants) < r.settings.MinPlayersToStart {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("need %d players to start, have %d", r.settings.MinPlayersToStart, len(r.participants)))
		}
		if p, notReady := lo.Find(r.participants, func(p *participant) bool { return !p.Ready }); notReady {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("player %s is not ready", p.PlayerID))
		}

		qs, err := r.cfg.Questions.Questions(ctx, r.settings.Difficulty, r.settings.QuestionCount, r.settings.Category)
		if err != nil {
			return errors.Internal(fmt.Errorf("fetch questions: %w", err))
		}

		r.questions = qs
		r.state = domain.RoomStateActive
		now := time.Now()
		r.startedAt = &now

		countdown := r.cfg.Timing.StartCountdown
		r.publish(ctx, domain.EventGameStarted{
			RoomID:           r.cfg.ID,
			CountdownSeconds: int(countdown / time.Second),
			QuestionCount:    len(qs),
		})
		r.publishUpdated(ctx)

		r.after(countdown, func() error {
			r.startQuestion(0)
			return nil
		})
		return nil
	})
}

// Disconnect reports a dropped realtime link. In waiting, the player is
// implicitly removed (with refund) after a grace period; in active, they stay
// in the room and score 0 for the remaining questions, so the pool is not
// refundable by dodging a loss.
func (r *Room) Disconnect(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		p := r.find(playerID)
		if p == nil {
			return nil
		}

		p.Connected = false
		p.disconnectSeq++
		seq := p.disconnectSeq

		if r.state == domain.RoomStateWaiting {
			r.after(r.cfg.Timing.DisconnectGrace, func() error {
				q := r.find(playerID)
				if r.state != domain.RoomStateWaiting || q == nil || q.Connected || q.disconnectSeq != seq {
					return nil
				}
				return r.leave(context.Background(), playerID)
			})
		}

		r.publishUpdated(ctx)
		return nil
	})
}

// Reconnect restores a dropped player's link.
func (r *Room) Reconnect(ctx context.Context, playerID string) error {
	return r.do(ctx, func() error {
		p := r.find(playerID)
		if p == nil {
			return errors.New(errors.CodeNotFound,
				errors.WithMessagef("player %s not in room %s", playerID, r.cfg.ID))
		}

		p.Connected = true
		p.disconnectSeq++
		r.publishUpdated(ctx)
		return nil
	})
}

func (r *Room) requireHost(playerID string) error {
	p := r.find(playerID)
	if p == nil || !p.IsHost {
		return errors.NewReason(errors.ReasonNotAuthorized,
			errors.WithMessagef("player %s is not the host of room %s", playerID, r.cfg.ID))
	}
	return nil
}

func (r *Room) find(playerID string) *participant {
	for _, p := range r.participants {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// recomputePool derives the pool from the authoritative sum of wagers; it is
// never incremented independently of a ledger movement.
func (r *Room) recomputePool() {
	r.prizePool = lo.SumBy(r.participants, func(p *participant) int64 { return p.Wager })
}

// halt marks the room broken after an invariant violation. No correction is
// attempted; further operations are rejected.
func (r *Room) halt(why string) {
	r.halted = true
	r.log.Error("room: invariant violation, halting", "why", why)
}

func (r *Room) publish(ctx context.Context, e event.Event) {
	if r.cfg.EventBus != nil {
		r.cfg.EventBus.Publish(ctx, e)
	}
}

func (r *Room) publishUpdated(ctx context.Context) {
	r.publish(ctx, domain.EventRoomUpdated{Room: r.snapshot()})
}

// ValidateSettings rejects settings no room should ever hold.
func ValidateSettings(s domain.RoomSettings) error {
	switch {
	case s.EntryFee < 0:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("entry fee must be non-negative, got %d", s.EntryFee))
	case s.MaxParticipants < 2:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("max participants must be at least 2, got %d", s.MaxParticipants))
	case s.MinPlayersToStart < 2 || s.MinPlayersToStart > s.MaxParticipants:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("min players to start must be within [2, %d], got %d", s.MaxParticipants, s.MinPlayersToStart))
	case s.QuestionCount < 1:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("question count must be positive, got %d", s.QuestionCount))
	case s.QuestionTime <= 0:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("question time must be positive, got %s", s.QuestionTime))
	}

	switch s.Distribution {
	case domain.DistributionWinnerTakeAll, domain.DistributionTop3, domain.DistributionProportional:
	default:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown distribution rule %q", s.Distribution))
	}

	return nil
}
