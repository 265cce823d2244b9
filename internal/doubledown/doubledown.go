package doubledown

import (
	"context"
	"log/slog"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/registry"
)

type Config struct {
	Registry *registry.Registry
}

// Coordinator chains a completed room into a double-or-nothing rematch: the
// winner's held winnings become the new room's entry fee via a single
// re-stake, and the new room cannot chain again unless its host re-enables it.
type Coordinator struct {
	registry *registry.Registry
}

func New(c Config) *Coordinator {
	co := &Coordinator{registry: c.Registry}
	co.registry.SetChain(co.Chain)
	return co
}

// Chain creates the rematch room for an accepted offer. It satisfies
// room.ChainFunc; the originating room calls it while holding the winner's
// uncredited winnings.
func (c *Coordinator) Chain(ctx context.Context, winnerID string, winnings int64, fromRoomID string, prior domain.RoomSettings) (string, error) {
	settings := prior
	settings.EntryFee = winnings
	settings.AllowDoubleDown = false // no infinite chains without an explicit re-enable
	if settings.Name != "" {
		settings.Name = settings.Name + " (double or nothing)"
	}

	r, err := c.registry.CreateFunded(ctx, settings, winnerID, winnings, fromRoomID)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "doubledown: rematch room created",
		"from", fromRoomID, "room", r.ID(), "winner", winnerID, "stake", winnings)

	return r.ID(), nil
}
