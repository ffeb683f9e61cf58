package prolix

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/i5heu/prolix/internal/config"
	"github.com/i5heu/prolix/internal/index"
	"github.com/i5heu/prolix/internal/testutil"
	"github.com/i5heu/prolix/pkg/keyValStore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^[a-z]{5,10}-[0-9]{4}#-[a-z]{5,10}-[a-z]{5,10}$`)

// recordingStore wraps a Store and counts writes.
type recordingStore struct {
	keyValStore.Store
	mu     sync.Mutex
	writes int
}

func (r *recordingStore) StoreWithExpiration(ctx context.Context, key, value string, ttl int) (int, error) {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.Store.StoreWithExpiration(ctx, key, value, ttl)
}

type brokenStore struct{}

var errBackend = errors.New("connection refused")

func (brokenStore) StoreWithExpiration(context.Context, string, string, int) (int, error) {
	return 0, errBackend
}
func (brokenStore) Get(context.Context, string) (string, error) { return "", errBackend }
func (brokenStore) Delete(context.Context, string) error        { return errBackend }
func (brokenStore) Close() error                                { return nil }

// rawStore returns the same value for every key.
type rawStore struct {
	brokenStore
	value string
}

func (r rawStore) Get(context.Context, string) (string, error) { return r.value, nil }

func newTestProlix(t *testing.T, format string) (*Prolix, *recordingStore) {
	t.Helper()
	store := &recordingStore{Store: testutil.NewMemoryStore(t)}
	p, err := New(Config{
		Store:            store,
		DescriptorFormat: format,
		Logger:           testutil.QuietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, store
}

func TestScenarioMaryHadALittleLamb(t *testing.T) {
	p, _ := newTestProlix(t, "")
	ctx := context.Background()

	res, err := p.Obscure(ctx, "Mary had a little lamb", 0)
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, res.Key)
	assert.Equal(t, DefaultExpirationSecs, res.ExpirationSeconds)
	assert.NotContains(t, res.ObscuredText, " ")
	assert.GreaterOrEqual(t, utf8.RuneCountInString(res.ObscuredText), 22*2)

	got, err := p.Clarify(ctx, res.Key, res.ObscuredText)
	require.NoError(t, err)
	assert.Equal(t, "Mary had a little lamb", got.ClarifiedText)
}

func TestRoundTripFormats(t *testing.T) {
	texts := []string{
		"hello, world.\nsecond line",
		"Grüße aus Köln",
		"日本語のテキスト",
		"emoji 😀🎉 mixed with text",
		"a",
		"   ",
		"..,,\n\n",
	}

	for _, format := range []string{"json", "compact"} {
		p, _ := newTestProlix(t, format)
		for _, text := range texts {
			res, err := p.Obscure(context.Background(), text, 60)
			require.NoError(t, err, format)

			got, err := p.Clarify(context.Background(), res.Key, res.ObscuredText)
			require.NoError(t, err, format)
			assert.Equal(t, text, got.ClarifiedText, format)
		}
	}
}

func TestStoredDescriptorMatchesWireFormat(t *testing.T) {
	p, _ := newTestProlix(t, "json")
	ctx := context.Background()

	res, err := p.Obscure(ctx, "abc def", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, res.ExpirationSeconds)

	raw, err := p.Store().Get(ctx, res.Key)
	require.NoError(t, err)
	entry, err := index.DecodeJSON([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, res.Key, entry.StorageKey)
	assert.Equal(t, 42, entry.TTLSeconds)
	assert.Equal(t, 1, entry.StenoSeq[3])
	assert.Len(t, entry.StenoSeq, 7)
}

func TestScenarioEmptyInput(t *testing.T) {
	p, store := newTestProlix(t, "")

	res, err := p.Obscure(context.Background(), "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, KindEmptyInput, KindOf(err))
	assert.Empty(t, res.Key)
	assert.Zero(t, store.writes)
}

func TestScenarioCorruptedTextNeverPanics(t *testing.T) {
	p, _ := newTestProlix(t, "")
	ctx := context.Background()

	res, err := p.Obscure(ctx, "The quick brown fox jumps over the lazy dog.", 0)
	require.NoError(t, err)

	runes := []rune(res.ObscuredText)
	variants := []string{
		string(runes[:len(runes)/2]),
		string(runes[1:]),
		string(runes[:1]),
		"x" + res.ObscuredText,
	}
	for _, v := range variants {
		assert.NotPanics(t, func() {
			got, err := p.Clarify(ctx, res.Key, v)
			if err != nil {
				assert.ErrorIs(t, err, ErrMalformedSequence)
				return
			}
			assert.NotEqual(t, "The quick brown fox jumps over the lazy dog.", got.ClarifiedText)
		})
	}
}

func TestClarifyMissingArguments(t *testing.T) {
	p, _ := newTestProlix(t, "")

	_, err := p.Clarify(context.Background(), "", "text")
	assert.ErrorIs(t, err, ErrMissingKeyOrText)

	_, err = p.Clarify(context.Background(), "key", "")
	assert.ErrorIs(t, err, ErrMissingKeyOrText)

	_, err = p.Clarify(context.Background(), "", "")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Len(t, perr.Messages(), 2)
}

func TestClarifyUnknownKey(t *testing.T) {
	p, _ := newTestProlix(t, "")
	_, err := p.Clarify(context.Background(), "apple-0001#-river-stone", "whatever")
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

func TestClarifyDecodeError(t *testing.T) {
	p, err := New(Config{Store: rawStore{value: "not a descriptor"}, Logger: testutil.QuietLogger()})
	require.NoError(t, err)

	_, err = p.Clarify(context.Background(), "key", "text")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestStoreUnavailable(t *testing.T) {
	p, err := New(Config{Store: brokenStore{}, Logger: testutil.QuietLogger()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Obscure(ctx, "text", 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBackend)

	_, err = p.Clarify(ctx, "key", "text")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	assert.ErrorIs(t, p.Forget(ctx, "key"), ErrStoreUnavailable)
}

func TestForget(t *testing.T) {
	p, _ := newTestProlix(t, "")
	ctx := context.Background()

	res, err := p.Obscure(ctx, "forget me", 0)
	require.NoError(t, err)

	require.NoError(t, p.Forget(ctx, res.Key))

	_, err = p.Clarify(ctx, res.Key, res.ObscuredText)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)

	assert.ErrorIs(t, p.Forget(ctx, res.Key), ErrNotFoundOrExpired)
	assert.ErrorIs(t, p.Forget(ctx, ""), ErrMissingKeyOrText)
}

func TestExpiryBadger(t *testing.T) {
	testutil.RequireLong(t)

	p, _ := newTestProlix(t, "")
	ctx := context.Background()

	res, err := p.Obscure(ctx, "short lived", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpirationSeconds)

	time.Sleep(2100 * time.Millisecond)

	_, err = p.Clarify(ctx, res.Key, res.ObscuredText)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

func TestExpiryRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	fc := config.Default()
	fc.Store = config.StoreRedis
	fc.RedisHost = host
	fc.RedisPort = port

	p, err := Open(fc, testutil.QuietLogger())
	require.NoError(t, err)
	defer p.Close()
	ctx := context.Background()

	res, err := p.Obscure(ctx, "short lived", 1)
	require.NoError(t, err)

	got, err := p.Clarify(ctx, res.Key, res.ObscuredText)
	require.NoError(t, err)
	assert.Equal(t, "short lived", got.ClarifiedText)

	mr.FastForward(2 * time.Second)

	_, err = p.Clarify(ctx, res.Key, res.ObscuredText)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

func TestOpenBadgerOnDisk(t *testing.T) {
	fc := config.Default()
	fc.BadgerPath = t.TempDir() + "/data"
	fc.DescriptorFormat = "compact"

	p, err := Open(fc, testutil.QuietLogger())
	require.NoError(t, err)
	ctx := context.Background()

	res, err := p.Obscure(ctx, "persisted", 0)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	p, err = Open(fc, testutil.QuietLogger())
	require.NoError(t, err)
	defer p.Close()

	got, err := p.Clarify(ctx, res.Key, res.ObscuredText)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.ClarifiedText)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	fc := config.Default()
	fc.Store = "memcached"
	_, err := Open(fc, testutil.QuietLogger())
	assert.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Store: brokenStore{}, DescriptorFormat: "xml"})
	assert.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	p, store := newTestProlix(t, "")
	assert.Regexp(t, keyPattern, p.GenerateKey())
	assert.Zero(t, store.writes)
}

func TestConcurrentObscureClarify(t *testing.T) {
	p, _ := newTestProlix(t, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := "worker number " + strconv.Itoa(i) + " says hello."
			res, err := p.Obscure(ctx, text, 0)
			if !assert.NoError(t, err) {
				return
			}
			got, err := p.Clarify(ctx, res.Key, res.ObscuredText)
			assert.NoError(t, err)
			assert.Equal(t, text, got.ClarifiedText)
		}(i)
	}
	wg.Wait()
}
