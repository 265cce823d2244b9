package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/ledger"
	"github.com/quizpot/quizpot/internal/question"
	"github.com/quizpot/quizpot/internal/room"
	"github.com/quizpot/quizpot/internal/telemetry"
)

type Config struct {
	Ledger    *ledger.Service
	EventBus  *event.Bus
	Questions question.Provider
	Timing    room.Timing
	Scoring   room.Scoring
}

// Registry is the concurrent collection of all live rooms. Lookups never
// create rooms; removal closes the room's actor.
type Registry struct {
	cfg Config

	mu    sync.RWMutex
	rooms map[string]*room.Room

	chain room.ChainFunc
}

func New(c Config) *Registry {
	return &Registry{
		cfg:   c,
		rooms: make(map[string]*room.Room),
	}
}

// SetChain injects the double-down coordinator's rematch hook. Wired once at
// startup, before any room completes.
func (g *Registry) SetChain(fn room.ChainFunc) {
	g.chain = fn
}

// Create allocates a new waiting room with hostID as its first participant.
// The host pays the entry fee exactly like any joiner.
func (g *Registry) Create(ctx context.Context, settings domain.RoomSettings, hostID string) (*room.Room, error) {
	return g.create(ctx, settings, hostID, func(r *room.Room) error {
		return r.Join(ctx, hostID)
	})
}

// CreateFunded allocates the chained rematch room for a double-down winner,
// whose stake is re-staked winnings from fromRoomID.
func (g *Registry) CreateFunded(ctx context.Context, settings domain.RoomSettings, winnerID string, stake int64, fromRoomID string) (*room.Room, error) {
	return g.create(ctx, settings, winnerID, func(r *room.Room) error {
		return r.JoinFunded(ctx, winnerID, stake, fromRoomID)
	})
}

func (g *Registry) create(ctx context.Context, settings domain.RoomSettings, creatorID string, seat func(*room.Room) error) (*room.Room, error) {
	if err := room.ValidateSettings(settings); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate room ID: %w", err))
	}

	r := room.New(room.Config{
		ID:         id.String(),
		CreatorID:  creatorID,
		Settings:   settings,
		Ledger:     g.cfg.Ledger,
		EventBus:   g.cfg.EventBus,
		Questions:  g.cfg.Questions,
		Timing:     g.cfg.Timing,
		Scoring:    g.cfg.Scoring,
		Chain:      g.chain,
		OnTerminal: g.reap,
	})

	// Seat the creator before the room is discoverable. A failed debit means
	// no room.
	if err := seat(r); err != nil {
		r.Close()
		return nil, err
	}

	g.mu.Lock()
	g.rooms[r.ID()] = r
	g.mu.Unlock()

	telemetry.RoomsCreatedTotal.Inc()
	telemetry.ActiveRooms.Inc()
	slog.InfoContext(ctx, "registry: room created", "room", r.ID())

	return r, nil
}

func (g *Registry) Get(roomID string) (*room.Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[roomID]
	if !ok {
		return nil, errors.NewReason(errors.ReasonRoomNotFound,
			errors.WithMessagef("room %s not found", roomID))
	}

	return r, nil
}

// Remove drops the room and stops its actor.
func (g *Registry) Remove(roomID string) {
	g.mu.Lock()
	r, ok := g.rooms[roomID]
	delete(g.rooms, roomID)
	g.mu.Unlock()

	if ok {
		r.Close()
		telemetry.ActiveRooms.Dec()
	}
}

// reap is the rooms' terminal callback: cancelled rooms leave immediately,
// completed rooms after their display retention.
func (g *Registry) reap(roomID string) {
	slog.Info("registry: reaping room", "room", roomID)
	g.Remove(roomID)
}

// ListJoinable returns snapshots of all waiting rooms with free seats. The
// list is computed per call, never cached.
func (g *Registry) ListJoinable(ctx context.Context) ([]domain.Room, error) {
	g.mu.RLock()
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	joinable := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		snap, err := r.Snapshot(ctx)
		if err != nil {
			// The room may have been reaped between the listing and the
			// snapshot; skip it.
			if errors.IsReason(err, errors.ReasonRoomNotFound) {
				continue
			}
			return nil, err
		}

		if snap.State == domain.RoomStateWaiting && len(snap.Participants) < snap.Settings.MaxParticipants {
			joinable = append(joinable, snap)
		}
	}

	return joinable, nil
}

// Len reports the number of rooms currently registered.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
