package server

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/auth"
	"github.com/fathima-sithara/campus-connect/internal/cache"
	"github.com/fathima-sithara/campus-connect/internal/config"
	"github.com/fathima-sithara/campus-connect/internal/handlers"
	"github.com/fathima-sithara/campus-connect/internal/kafka"
	"github.com/fathima-sithara/campus-connect/internal/middleware"
	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/repository"
	"github.com/fathima-sithara/campus-connect/internal/routes"
	"github.com/fathima-sithara/campus-connect/internal/service"
	"github.com/fathima-sithara/campus-connect/internal/ws"
)

// Server holds service dependencies
type Server struct {
	Cfg *config.Config
	App *fiber.App
	Log *zap.Logger

	mongo    *mongo.Client
	redis    *cache.Client
	events   *kafka.Producer
	dlq      *kafka.Producer
	activity *kafka.Consumer
	hub      *ws.Hub
	local    *middleware.LocalLimiter
	svc      *service.ActivityService

	// background workers; done is set by Start
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the server and all dependencies. Errors if a required dependency fails.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	s := &Server{Cfg: cfg, Log: log}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if err := s.build(ctx); err != nil {
		s.closeClients()
		s.cancel()
		return nil, err
	}
	return s, nil
}

func (s *Server) build(ctx context.Context) error {
	cfg, log := s.Cfg, s.Log

	validator, err := auth.NewValidatorFromFile(cfg.JWT.PublicKeyPath)
	if err != nil {
		return err
	}

	store, err := s.openStore(ctx)
	if err != nil {
		return err
	}

	opts := []service.Option{}
	s.hub = ws.NewHub(log.Named("ws"))
	opts = append(opts, service.WithHinter(s.hub))
	if cfg.Kafka.Enabled {
		s.events = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		opts = append(opts, service.WithPublisher(s.events))
	}

	notifs := service.NewNotificationService(store.Notifications, log.Named("notifications"), opts...)
	chat := service.NewChatService(store.Users, store.Threads, notifs, log.Named("chat"), opts...)
	groups := service.NewGroupService(store.Users, store.Groups, log.Named("groups"), opts...)

	ensureCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := groups.EnsureWorld(ensureCtx); err != nil {
		return err
	}

	if cfg.Kafka.Enabled {
		s.dlq = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDLQ)
		s.activity = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicActivity, cfg.Kafka.GroupID, log.Named("activity"))
		s.svc = service.NewActivityService(notifs, store.Users, service.ActivityConfig{
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: time.Duration(cfg.Kafka.RetryBackoffMs) * time.Millisecond,
			DeadLetter:   s.dlq,
		}, log.Named("activity"))
	}

	var limiter middleware.Limiter
	if cfg.Redis.Enabled {
		s.redis, err = cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		limiter = cache.NewSendLimiter(s.redis, cfg.Chat.RateLimitPerMin)
	} else {
		s.local = middleware.NewLocalLimiter(cfg.Chat.RateLimitPerMin)
		limiter = s.local
	}

	s.App = routes.NewApp(log)
	routes.Register(s.App, routes.Deps{
		Handler:   handlers.New(chat, groups, notifs, log, cfg.RequestTimeout),
		Validator: validator,
		Limiter:   limiter,
		Hub:       s.hub,
		Log:       log,
	})
	return nil
}

func (s *Server) openStore(ctx context.Context) (*repository.Store, error) {
	cfg := s.Cfg
	if cfg.App.Storage == "memory" {
		store, db := repository.NewMemoryStore()
		for _, u := range cfg.App.SeedUsers {
			db.PutUser(models.User{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, Role: u.Role})
		}
		s.Log.Warn("using in-memory storage; data is lost on restart", zap.Int("seed_users", len(cfg.App.SeedUsers)))
		return store, nil
	}

	// mongo may still be starting next to us
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 3 * cfg.ConnectTimeout
	err := backoff.RetryNotify(func() error {
		client, err := repository.Connect(ctx, cfg.Mongo.URI, cfg.ConnectTimeout)
		if err != nil {
			return err
		}
		s.mongo = client
		return nil
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.Log.Warn("mongo not ready, retrying", zap.Duration("in", wait), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("connected to mongo", zap.String("db", cfg.Mongo.DB))
	return repository.NewMongoStore(ctx, s.mongo.Database(cfg.Mongo.DB))
}

// Start launches background workers and the HTTP listener. It returns once
// the listener stops.
func (s *Server) Start() error {
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if s.local != nil {
			go s.local.Cleanup(s.ctx, time.Minute, 5*time.Minute)
		}
		if s.activity != nil {
			s.activity.Run(s.ctx, s.svc.Handle)
		}
		<-s.ctx.Done()
	}()

	s.Log.Info("starting campus-connect", zap.String("port", s.Cfg.App.Port), zap.String("storage", s.Cfg.App.Storage))
	return s.App.Listen(":" + s.Cfg.App.Port)
}

// Shutdown gracefully stops the HTTP server, background workers and clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Log.Info("shutting down campus-connect")
	var errs []error
	if err := s.App.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
		}
	}
	s.hub.Close()
	errs = append(errs, s.closeClients()...)
	return errors.Join(errs...)
}

func (s *Server) closeClients() []error {
	var errs []error
	if s.activity != nil {
		if err := s.activity.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range []*kafka.Producer{s.events, s.dlq} {
		if p != nil {
			if err := p.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, err := range errs {
		s.Log.Error("close failed", zap.Error(err))
	}
	return errs
}
