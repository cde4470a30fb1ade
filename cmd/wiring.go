package cmd

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/events"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type services struct {
	userAuth      service.UserAuthService
	profile       service.UserProfileService
	lifecycle     service.AccountLifecycleService
	posterRequest service.PosterRequestService
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newPublisher falls back to dropping events when no broker is configured or
// the broker is unreachable at startup.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQP.URL == "" {
		logrus.Info("AMQP_URL not set, account events are disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
	if err != nil {
		logrus.WithError(err).Warn("Failed to connect to AMQP broker, account events are disabled")
		return events.NopPublisher{}
	}
	logrus.WithField("queue", cfg.AMQP.Queue).Info("Publishing account events")
	return publisher
}

func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("Redis unreachable, rate limiting will fail open")
	}
	return rdb
}

func newServices(db *sql.DB, cfg *config.Config, publisher events.Publisher, extra ...service.Option) *services {
	opts := append([]service.Option{service.WithPublisher(publisher)}, extra...)

	userRepo := repository.NewUserRepository(db)
	hasher := service.NewBcryptHasher(cfg.Password.BcryptCost)
	tokens := service.NewTokenIssuer(repository.NewRefreshTokenRepository(db), cfg.JWT, opts...)

	return &services{
		userAuth:      service.NewUserAuthService(userRepo, hasher, tokens, cfg.Password.Policy, opts...),
		profile:       service.NewUserProfileService(userRepo, cfg.Account.DesignerPageLimit, opts...),
		lifecycle:     service.NewAccountLifecycleService(userRepo, hasher, tokens, cfg.Account.DeleteGracePeriod, opts...),
		posterRequest: service.NewPosterRequestService(db, userRepo, repository.NewPosterRequestRepository(db), opts...),
	}
}
