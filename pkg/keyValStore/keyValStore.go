package keyValStore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// KeyValStore is a Store backed by an embedded badger database. Expiry is
// handled by badger itself through per-entry TTLs.
type KeyValStore struct {
	config       StoreConfig
	log          *logrus.Logger
	badgerDB     *badger.DB
	readCounter  uint64
	writeCounter uint64

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Store = (*KeyValStore)(nil)

func NewKeyValStore(config StoreConfig) (*KeyValStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log := config.Logger

	err := config.checkConfig()
	if err != nil {
		return nil, fmt.Errorf("error checking config for KeyValStore: %w", err)
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(config.Paths[0])
		opts.ValueLogFileSize = 1024 * 1024 * 100 // Set max size of each value log file to 100MB
	}
	opts.Logger = nil
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger: %w", err)
	}

	if !config.InMemory {
		if err := displayDiskUsage(log, config.Paths[:1]); err != nil {
			db.Close()
			return nil, err
		}
	}

	k := &KeyValStore{
		config:   config,
		log:      log,
		badgerDB: db,
		stop:     make(chan struct{}),
	}

	if config.GCInterval > 0 {
		k.startMaintenance(config.GCInterval)
	}

	return k, nil
}

// startMaintenance runs the value log GC and logs the operation counters
// every interval until Close.
func (k *KeyValStore) startMaintenance(interval time.Duration) {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastReads, lastWrites uint64
		for {
			select {
			case <-k.stop:
				return
			case <-ticker.C:
				reads, writes := k.Stats()
				k.log.WithFields(logrus.Fields{
					"reads":  reads - lastReads,
					"writes": writes - lastWrites,
				}).Debug("descriptor store operations")
				lastReads, lastWrites = reads, writes

				if err := k.collectGarbage(); err != nil {
					k.log.WithError(err).Warn("value log gc failed")
				}
			}
		}
	}()
}

func (k *KeyValStore) StoreWithExpiration(ctx context.Context, key, value string, ttlSeconds int) (int, error) {
	if err := CheckArgs(key, value); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ttl := EffectiveTTL(ttlSeconds, k.config.DefaultTTLSeconds)
	atomic.AddUint64(&k.writeCounter, 1)

	err := k.badgerDB.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(value)).WithTTL(time.Duration(ttl) * time.Second)
		return txn.SetEntry(e)
	})
	if err != nil {
		return 0, fmt.Errorf("error writing key %s: %w", key, err)
	}
	return ttl, nil
}

func (k *KeyValStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	atomic.AddUint64(&k.readCounter, 1)
	var value []byte
	err := k.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error reading key %s: %w", key, err)
	}
	return string(value), nil
}

func (k *KeyValStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	atomic.AddUint64(&k.writeCounter, 1)
	err := k.badgerDB.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error deleting key %s: %w", key, err)
	}
	return nil
}

// Stats returns the number of reads and writes since the store was opened.
func (k *KeyValStore) Stats() (reads, writes uint64) {
	return atomic.LoadUint64(&k.readCounter), atomic.LoadUint64(&k.writeCounter)
}

func (k *KeyValStore) Close() error {
	var err error
	k.closeOnce.Do(func() {
		close(k.stop)
		k.wg.Wait()

		if cleanErr := k.Clean(); cleanErr != nil {
			k.log.WithError(cleanErr).Warn("error cleaning descriptor store")
		}
		err = k.badgerDB.Close()
	})
	return err
}

// Clean syncs, flattens and garbage collects the database.
func (k *KeyValStore) Clean() error {
	if k.config.InMemory {
		return nil
	}

	err := k.badgerDB.Sync()
	if err != nil {
		return fmt.Errorf("error syncing db: %w", err)
	}

	// The parameter is the number of concurrent compactions
	err = k.badgerDB.Flatten(runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("error flattening db: %w", err)
	}
	k.log.Debug("DB Flattened")

	return k.collectGarbage()
}

func (k *KeyValStore) collectGarbage() error {
	if k.config.InMemory {
		return nil
	}

	err := k.badgerDB.RunValueLogGC(0.1)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("error cleaning db: %w", err)
	}
	return nil
}
