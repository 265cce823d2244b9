package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/quizpot/quizpot/internal/api"
	"github.com/quizpot/quizpot/internal/doubledown"
	"github.com/quizpot/quizpot/internal/event"
	"github.com/quizpot/quizpot/internal/ledger"
	"github.com/quizpot/quizpot/internal/question"
	"github.com/quizpot/quizpot/internal/registry"
	"github.com/quizpot/quizpot/internal/room"
	"github.com/quizpot/quizpot/internal/standings"
	"github.com/quizpot/quizpot/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Auth struct {
		JWTSecret     string
		TokenTTLHours int32
	}

	Redis struct {
		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	// Postgres is optional; with no Addr the ledger log stays in memory.
	Postgres struct {
		Ledger struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Game struct {
		StartCountdownSeconds  int32
		QuestionGapSeconds     int32
		DisconnectGraceSeconds int32
		OfferWindowSeconds     int32
		RetentionSeconds       int32
	}

	Question struct {
		Seed int64
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		ledger     *ledger.Service
		registry   *registry.Registry
		doubledown *doubledown.Coordinator
		standings  *standings.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if len(s.c.Redis.Pubsub.Addrs) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    s.c.Redis.Pubsub.Addrs,
			Password: s.c.Redis.Pubsub.Pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		s.infra.redis = r
	}

	if s.c.Postgres.Ledger.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		p := s.c.Postgres.Ledger
		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		s.infra.postgres = db
	}

	return nil
}

func (s *Server) initService() {
	var store ledger.Store
	if s.infra.postgres != nil {
		store = ledger.NewPostgresStore(s.infra.postgres)
	}

	s.service.ledger = ledger.NewService(ledger.Config{
		Store:    store,
		EventBus: s.eb,
	})

	sec := func(n int32) time.Duration { return time.Duration(n) * time.Second }

	s.service.registry = registry.New(registry.Config{
		Ledger:    s.service.ledger,
		EventBus:  s.eb,
		Questions: question.NewStaticProvider(question.DefaultBank(), s.c.Question.Seed),
		Timing: room.Timing{
			StartCountdown:  sec(s.c.Game.StartCountdownSeconds),
			QuestionGap:     sec(s.c.Game.QuestionGapSeconds),
			DisconnectGrace: sec(s.c.Game.DisconnectGraceSeconds),
			OfferWindow:     sec(s.c.Game.OfferWindowSeconds),
			Retention:       sec(s.c.Game.RetentionSeconds),
		},
	})

	s.service.doubledown = doubledown.New(doubledown.Config{
		Registry: s.service.registry,
	})

	if s.infra.redis != nil {
		s.service.standings = standings.NewService(standings.Config{
			EventBus: s.eb,
			Redis:    s.infra.redis,
			Prefix:   s.c.Redis.Pubsub.Prefix,
		})
	}
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	var rd api.Redis
	if s.infra.redis != nil {
		rd = s.infra.redis
	}

	api.New(api.Config{
		Engine:       e,
		EventBus:     s.eb,
		Registry:     s.service.registry,
		Ledger:       s.service.ledger,
		Standings:    s.service.standings,
		Redis:        rd,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
		JWTSecret:    s.c.Auth.JWTSecret,
		TokenTTL:     time.Duration(s.c.Auth.TokenTTLHours) * time.Hour,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}
	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
