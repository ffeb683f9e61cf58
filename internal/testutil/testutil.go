package testutil

import (
	"flag"
	"io"
	"testing"

	"github.com/i5heu/prolix/pkg/keyValStore"
	"github.com/sirupsen/logrus"
)

var RunLong = flag.Bool("long", false, "run long/heavy tests")

func RequireLong(t *testing.T) {
	t.Helper()
	if !*RunLong {
		t.Skip("skipping long test (use -long to enable)")
	}
}

func IsLongEnabled() bool {
	return *RunLong
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewMemoryStore opens an in-memory badger store that is closed with the test.
func NewMemoryStore(t *testing.T) *keyValStore.KeyValStore {
	t.Helper()
	kv, err := keyValStore.NewKeyValStore(keyValStore.StoreConfig{
		InMemory: true,
		Logger:   QuietLogger(),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}
