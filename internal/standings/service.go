package standings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/event"
)

const defaultLimit = 10

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service maintains the lifetime standings boards: total winnings and first
// places per player, across all completed rooms. Fed by game completion
// events, stored in redis sorted sets so every instance sees the same board.
type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameGameCompleted, func(ctx context.Context, e event.Event) error {
		return s.Record(ctx, e.(domain.EventGameCompleted))
	})

	return s
}

// Record folds one completed room into the lifetime boards.
func (s *Service) Record(ctx context.Context, e domain.EventGameCompleted) error {
	for _, st := range e.Standings {
		if st.Winnings > 0 {
			if err := s.redis.ZIncrBy(ctx, s.winningsKey(), float64(st.Winnings), st.PlayerID).Err(); err != nil {
				return fmt.Errorf("record winnings: room=%s player=%s: %w", e.RoomID, st.PlayerID, err)
			}
		}

		if st.Position == 1 {
			if err := s.redis.ZIncrBy(ctx, s.winsKey(), 1, st.PlayerID).Err(); err != nil {
				return fmt.Errorf("record win: room=%s player=%s: %w", e.RoomID, st.PlayerID, err)
			}
		}
	}

	return nil
}

type GetTopRequest struct {
	Limit int
}

// GetTop returns up to Limit players ordered by lifetime winnings. Players
// who never won anything do not appear.
func (s *Service) GetTop(ctx context.Context, req GetTopRequest) ([]domain.LifetimeStanding, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.winningsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("get standings: %w", err)
	}

	rows := make([]domain.LifetimeStanding, 0, len(res))
	for _, z := range res {
		playerID := z.Member.(string)

		wins, err := s.redis.ZScore(ctx, s.winsKey(), playerID).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("get wins: player=%s: %w", playerID, err)
		}

		rows = append(rows, domain.LifetimeStanding{
			PlayerID: playerID,
			Winnings: int64(z.Score),
			Wins:     int64(wins),
		})
	}

	return rows, nil
}

func (s *Service) winningsKey() string {
	return fmt.Sprintf("%s:standings:winnings", s.prefix)
}

func (s *Service) winsKey() string {
	return fmt.Sprintf("%s:standings:wins", s.prefix)
}
