package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/config"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/events"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
	redrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/redis"
	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	decksvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/decks"
	likessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/likes"
	matchessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/matches"
	ratesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/rate"
	swipesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/swipes"
)

type App struct {
	cfg            config.Config
	logger         *zap.Logger
	server         *http.Server
	postgres       *pgxpool.Pool
	redis          *goredis.Client
	bridge         *events.Bridge
	subscriber     message.Subscriber
	consumer       *events.ProfileConsumer
	consumerCancel context.CancelFunc
	httpRouter     http.Handler
}

// New wires the matchmaking engine. Postgres, NATS publishing and the
// user.updated consumer each degrade independently when their backend is
// unreachable; the HTTP surface stays up either way.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	likeIndexRepo := redrepo.NewLikeIndexRepo(redisClient, cfg.Engine.LikeIndexTTL)
	deckRepo := redrepo.NewDeckRepo(redisClient)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Engine.SwipesPerMinute, cfg.Engine.SwipesPer10Sec)

	deckService := decksvc.NewService(deckRepo, profileRepo, swipeRepo, decksvc.Config{
		BatchSize:    cfg.Engine.DeckBatchSize,
		DeckTTL:      cfg.Engine.DeckTTL,
		DefaultLimit: cfg.Engine.DefaultCardLimit,
	}, log)

	swipeService := swipesvc.NewService(pool, swipeRepo, matchRepo, log)
	swipeService.AttachLikeIndex(likeIndexRepo)
	swipeService.AttachDecks(deckRepo)
	swipeService.AttachRateLimiter(rateLimiter)

	matchService := matchessvc.NewService(pool, matchRepo, cfg.Engine.DefaultMatchLimit, log)
	likesService := likessvc.NewService(swipeRepo, cfg.Engine.DefaultCardLimit)

	var bridge *events.Bridge
	if pub, err := events.NewNATSPublisher(cfg.NATS.URL, log); err != nil {
		log.Warn("nats publisher init failed, continuing without events", zap.Error(err))
	} else {
		bridge = events.NewBridge(pub, log)
		swipeService.AttachPublisher(bridge)
		matchService.AttachPublisher(bridge)
	}

	var (
		subscriber message.Subscriber
		consumer   *events.ProfileConsumer
	)
	if sub, err := events.NewNATSSubscriber(cfg.NATS.URL, cfg.NATS.QueueGroup, log); err != nil {
		log.Warn("nats subscriber init failed, profile updates will not invalidate decks", zap.Error(err))
	} else {
		subscriber = sub
		consumer = events.NewProfileConsumer(sub, deckService, log)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:   jwtManager,
		SwipeService: swipeService,
		DeckService:  deckService,
		MatchService: matchService,
		LikesService: likesService,
		Logger:       log,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		bridge:     bridge,
		subscriber: subscriber,
		consumer:   consumer,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	if a.consumer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.consumerCancel = cancel
		go func() {
			if err := a.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("profile consumer stopped", zap.Error(err))
			}
		}()
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.consumerCancel != nil {
		a.consumerCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.bridge != nil {
		if err := a.bridge.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
