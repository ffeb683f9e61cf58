package prolix

import (
	"fmt"
	"os"
	"time"

	"github.com/i5heu/prolix/internal/config"
	"github.com/i5heu/prolix/pkg/keyValStore"
	"github.com/i5heu/prolix/pkg/redisStore"
	"github.com/sirupsen/logrus"
)

// Open builds the store selected by fc and returns a service on top of it.
func Open(fc config.Config, logger *logrus.Logger) (*Prolix, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := openStore(fc, logger)
	if err != nil {
		return nil, err
	}

	p, err := New(Config{
		Store:                 store,
		DefaultExpirationSecs: fc.DefaultStoreExpirationSecs,
		DescriptorFormat:      fc.DescriptorFormat,
		Logger:                logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return p, nil
}

func openStore(fc config.Config, logger *logrus.Logger) (keyValStore.Store, error) {
	switch fc.Store {
	case config.StoreRedis:
		return redisStore.New(redisStore.Config{
			Host:              fc.RedisHost,
			Port:              fc.RedisPort,
			Password:          fc.RedisPassword,
			DB:                fc.RedisDB,
			DefaultTTLSeconds: fc.DefaultStoreExpirationSecs,
			Logger:            logger,
		}), nil

	case config.StoreBadger:
		sc := keyValStore.StoreConfig{
			InMemory:          fc.BadgerInMemory,
			MinimumFreeSpace:  fc.MinimumFreeGB,
			DefaultTTLSeconds: fc.DefaultStoreExpirationSecs,
			GCInterval:        time.Duration(fc.GCIntervalMinutes) * time.Minute,
			Logger:            logger,
		}
		if !fc.BadgerInMemory {
			if err := os.MkdirAll(fc.BadgerPath, 0o700); err != nil {
				return nil, fmt.Errorf("error creating badger path: %w", err)
			}
			sc.Paths = []string{fc.BadgerPath}
		}
		kv, err := keyValStore.NewKeyValStore(sc)
		if err != nil {
			return nil, fmt.Errorf("error creating KeyValStore: %w", err)
		}
		return kv, nil
	}

	return nil, fmt.Errorf("unknown store %q", fc.Store)
}
