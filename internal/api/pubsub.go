package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/event"
)

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// publisher bridges room events onto redis pub/sub so gateways on other
// instances can fan them out to their own connections.
type publisher struct {
	redis  Redis
	prefix string
}

func newPublisher(eb *event.Bus, r Redis, prefix string) *publisher {
	p := &publisher{redis: r, prefix: prefix}

	for _, name := range []string{
		domain.EventNameRoomUpdated,
		domain.EventNamePlayerJoined,
		domain.EventNamePlayerLeft,
		domain.EventNamePlayerReady,
		domain.EventNameGameStarted,
		domain.EventNameQuestionStarted,
		domain.EventNameQuestionResult,
		domain.EventNameGameCompleted,
		domain.EventNameDoubleDownOffer,
	} {
		eb.Subscribe(name, p.publish)
	}

	return p
}

func (p *publisher) publish(ctx context.Context, e event.Event) error {
	roomID, data := wireEvent(e)
	if roomID == "" {
		return nil
	}

	b, err := json.Marshal(notification{Event: e.Name(), Data: data})
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", e.Name(), err)
	}

	return p.redis.Publish(ctx, fmt.Sprintf("%s:room:%s", p.prefix, roomID), b).Err()
}
