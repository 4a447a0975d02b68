package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/calendarbot/internal/adapters/file"
	"github.com/aretw0/calendarbot/internal/config"
	"github.com/aretw0/calendarbot/pkg/adapters/memory"
	"github.com/aretw0/calendarbot/pkg/adapters/oauth"
	"github.com/aretw0/calendarbot/pkg/adapters/redis"
	"github.com/aretw0/calendarbot/pkg/persistence/middleware"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// Storage groups the persistence backends selected by the store driver.
type Storage struct {
	// Sessions is the store the bot uses, encrypted when a key is configured.
	Sessions ports.SessionStore
	Tokens   ports.TokenStore
	// Locker is nil unless the driver is shared between replicas.
	Locker ports.DistributedLocker

	ping  func(context.Context) error
	close func() error
}

// OpenStorage builds the session store, token store and locker for cfg.
func OpenStorage(cfg config.StoreConfig, logger *slog.Logger) (*Storage, error) {
	s := &Storage{
		ping:  func(context.Context) error { return nil },
		close: func() error { return nil },
	}

	var base ports.SessionStore
	switch cfg.Driver {
	case config.DriverMemory, "":
		base = memory.NewStore()
		s.Tokens = oauth.NewMemoryTokenStore(10 * time.Minute)
	case config.DriverFile:
		base = file.New(cfg.Path)
		s.Tokens = oauth.NewMemoryTokenStore(10 * time.Minute)
	case config.DriverRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL.Std()),
		)
		base = rs
		s.Tokens = redis.NewTokenStore(rs.Client(), cfg.Redis.Prefix)
		s.Locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		s.ping = rs.Ping
		s.close = rs.Close
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	logger.Debug("storage opened", "driver", cfg.Driver)

	sessions, err := encrypted(base, cfg)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.Sessions = sessions
	return s, nil
}

func encrypted(store ports.SessionStore, cfg config.StoreConfig) (ports.SessionStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	var fallbacks [][]byte
	for _, k := range cfg.PreviousKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallbacks,
	})), nil
}

func (s *Storage) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Storage) Close() error { return s.close() }
