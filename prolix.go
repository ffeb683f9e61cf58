/*
Package prolix hides text among generated filler characters. The padding
descriptor needed to recover the text is kept in a TTL key-value store under a
human-memorable key; the obscured text itself is only ever handed back to the
caller.

This is obscurity, not encryption: there is no authentication and no
integrity check.
*/
package prolix

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/i5heu/prolix/internal/filler"
	"github.com/i5heu/prolix/internal/index"
	"github.com/i5heu/prolix/internal/steno"
	"github.com/i5heu/prolix/internal/words"
	"github.com/i5heu/prolix/pkg/keyValStore"
	"github.com/sirupsen/logrus"
)

const DefaultExpirationSecs = 300

type Config struct {
	// Store holds the padding descriptors. Required.
	Store keyValStore.Store
	// DefaultExpirationSecs applies when Obscure is called without an
	// expiration. Zero means DefaultExpirationSecs.
	DefaultExpirationSecs int
	// DescriptorFormat is "json" (default) or "compact".
	DescriptorFormat string
	// Logger is optional; a logrus.New() logger is used when nil.
	Logger *logrus.Logger
}

type ObscureResult struct {
	Key               string `json:"key"`
	ExpirationSeconds int    `json:"expiration_seconds"`
	ObscuredText      string `json:"obscured_text"`
}

type ClarifyResult struct {
	ClarifiedText string `json:"clarified_text"`
}

// Prolix is safe for concurrent use.
type Prolix struct {
	log   *logrus.Logger
	store keyValStore.Store

	engine *steno.Engine
	keys   *words.KeyGenerator
	codec  index.Codec

	defaultExpiration int
	closeOnce         sync.Once
}

// New builds the frequency lookup and word list and returns a ready service.
func New(conf Config) (*Prolix, error) {
	if conf.Store == nil {
		return nil, errors.New("prolix: a store is required")
	}
	if conf.Logger == nil {
		conf.Logger = logrus.New()
	}
	if conf.DefaultExpirationSecs <= 0 {
		conf.DefaultExpirationSecs = DefaultExpirationSecs
	}

	format, err := index.ParseFormat(conf.DescriptorFormat)
	if err != nil {
		return nil, fmt.Errorf("prolix: %w", err)
	}

	lookup, err := filler.DefaultLookup()
	if err != nil {
		return nil, fmt.Errorf("prolix: error building frequency lookup: %w", err)
	}
	dict, err := words.Default()
	if err != nil {
		return nil, fmt.Errorf("prolix: error loading word list: %w", err)
	}

	gen := filler.New(lookup)

	return &Prolix{
		log:               conf.Logger,
		store:             conf.Store,
		engine:            steno.NewEngine(gen),
		keys:              words.NewKeyGenerator(dict, gen),
		codec:             index.NewCodec(format),
		defaultExpiration: conf.DefaultExpirationSecs,
	}, nil
}

// Obscure pads text with filler, stores the padding descriptor under a fresh
// key and returns the key together with the obscured text. An
// expirationSecs of zero or less selects the configured default.
func (p *Prolix) Obscure(ctx context.Context, text string, expirationSecs int) (ObscureResult, error) {
	if text == "" {
		return ObscureResult{}, newError(KindEmptyInput, nil)
	}

	res, err := p.engine.Obscure(text)
	if err != nil {
		if errors.Is(err, steno.ErrEmptyInput) {
			return ObscureResult{}, newError(KindEmptyInput, nil)
		}
		return ObscureResult{}, newError(KindMalformedSequence, err)
	}

	ttl := expirationSecs
	if ttl <= 0 {
		ttl = p.defaultExpiration
	}

	key := p.keys.Password()
	data, err := p.codec.Encode(index.NewEntry(key, res.Sequence, ttl))
	if err != nil {
		return ObscureResult{}, newError(KindDecodeError, err)
	}

	effective, err := p.store.StoreWithExpiration(ctx, key, string(data), ttl)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err,
		}).Warn("error storing padding descriptor")
		return ObscureResult{}, newError(KindStoreUnavailable, err)
	}

	p.log.WithFields(logrus.Fields{
		"key":           key,
		"chars":         len(res.Sequence),
		"obscuredChars": utf8.RuneCountInString(res.Text),
		"ttl":           effective,
		"format":        p.codec.Format(),
	}).Debug("text obscured")

	return ObscureResult{
		Key:               key,
		ExpirationSeconds: effective,
		ObscuredText:      res.Text,
	}, nil
}

// Clarify looks up the descriptor stored under key and recovers the original
// text from obscuredText.
func (p *Prolix) Clarify(ctx context.Context, key, obscuredText string) (ClarifyResult, error) {
	var missing []string
	if key == "" {
		missing = append(missing, "key is required")
	}
	if obscuredText == "" {
		missing = append(missing, "obscured text is required")
	}
	if len(missing) > 0 {
		return ClarifyResult{}, newError(KindMissingKeyOrText, nil, missing...)
	}

	raw, err := p.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, keyValStore.ErrNotFound) {
			return ClarifyResult{}, newError(KindNotFoundOrExpired, err)
		}
		p.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err,
		}).Warn("error reading padding descriptor")
		return ClarifyResult{}, newError(KindStoreUnavailable, err)
	}

	entry, err := p.codec.Decode([]byte(raw))
	if err != nil {
		return ClarifyResult{}, newError(KindDecodeError, err)
	}
	if entry.StorageKey != key {
		p.log.WithFields(logrus.Fields{
			"key":        key,
			"storageKey": entry.StorageKey,
		}).Warn("descriptor was stored under a different key")
	}

	text, err := steno.Clarify(obscuredText, entry.StenoSeq)
	if err != nil {
		return ClarifyResult{}, newError(KindMalformedSequence, err)
	}

	p.log.WithFields(logrus.Fields{
		"key":   key,
		"chars": len(entry.StenoSeq),
	}).Debug("text clarified")

	return ClarifyResult{ClarifiedText: text}, nil
}

// Forget removes the descriptor stored under key before it expires.
func (p *Prolix) Forget(ctx context.Context, key string) error {
	if key == "" {
		return newError(KindMissingKeyOrText, nil, "key is required")
	}

	err := p.store.Delete(ctx, key)
	if errors.Is(err, keyValStore.ErrNotFound) {
		return newError(KindNotFoundOrExpired, err)
	}
	if err != nil {
		return newError(KindStoreUnavailable, err)
	}

	p.log.WithField("key", key).Debug("descriptor forgotten")
	return nil
}

// GenerateKey returns a key in the format Obscure uses, without storing
// anything.
func (p *Prolix) GenerateKey() string {
	return p.keys.Password()
}

// Store returns the underlying descriptor store.
func (p *Prolix) Store() keyValStore.Store {
	return p.store
}

// Close closes the store. Calling Close more than once is a no-op.
func (p *Prolix) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.store.Close()
	})
	return err
}
