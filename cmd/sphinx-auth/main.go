package main

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/sphinx-bounties/auth/adapters/events"
	"github.com/sphinx-bounties/auth/adapters/store"
	"github.com/sphinx-bounties/auth/adapters/tokenizer"
	"github.com/sphinx-bounties/auth/gate"
	"github.com/sphinx-bounties/auth/internal/config"
	"github.com/sphinx-bounties/auth/ports"
	"github.com/sphinx-bounties/auth/service"
	transport "github.com/sphinx-bounties/auth/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		// Development convenience only; config.Load refuses this in production.
		secret = "sphinx-dev-session-secret"
		slog.Warn("SESSION_SECRET not set, using development default")
	}

	var (
		challenges ports.ChallengeStore
		members    ports.MembershipStore
		eventPub   ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)

		redisStore := store.NewRedisStore(client)
		challenges = redisStore
		members = redisStore

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NewSlogLogger(slog.Default()),
		)
		if err != nil {
			slog.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		if cfg.Production() {
			slog.Error("REDIS_URL is required in production")
			os.Exit(1)
		}
		slog.Warn("REDIS_URL not set, using in-memory store")

		memStore := store.NewMemoryStore()
		challenges = memStore
		members = memStore
		eventPub = events.NewWatermillPublisher(
			gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(slog.Default())),
		)
	}

	codec := tokenizer.NewJWTCodec([]byte(secret), cfg.SessionTTL)
	authService := service.NewAuthService(challenges, codec, eventPub, cfg.PublicHost, cfg.ChallengeTTL)

	engine := gate.NewEngine(
		gate.NewClassifier(gate.DefaultTables()),
		codec,
		members,
		cfg.SuperAdminList(),
		gate.GateConfig{
			Enabled:    cfg.GateEnabled,
			Code:       cfg.GateCode,
			CookieName: transport.GateCookieName,
		},
		transport.SessionCookieName,
	)

	router := transport.SetupRouter(transport.RouterConfig{
		AuthService: authService,
		Members:     members,
		Engine:      engine,
		Cookies:     transport.NewCookieBinder(cfg.SessionTTL, !cfg.Development()),
		DevMode:     cfg.Development(),
	})

	slog.Info("starting sphinx-auth", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
