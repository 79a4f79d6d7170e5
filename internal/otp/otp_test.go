package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/medicine-cart/medicine_cart/internal/clock"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func newMemoryEngine(t *testing.T) (*Engine, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	engine := NewEngine(NewMemoryStore(clk), NewHMACHasher([]byte("test-secret")), 5*time.Minute)
	return engine, clk
}

func TestIssueReturnsSixDigitCode(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		code, err := engine.Issue(ctx, LoginKey("+14155552671"), 0)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if !sixDigits.MatchString(code) {
			t.Fatalf("expected 6 digit numeric code, got %q", code)
		}
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()
	key := LoginKey("+14155552671")

	code, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := engine.Verify(ctx, key, code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := engine.Verify(ctx, key, code); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected ErrNotFoundOrExpired on replay, got %v", err)
	}
}

func TestVerifyMismatchKeepsRecord(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()
	key := DeliveryKey("order-1")

	code, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := engine.Verify(ctx, key, wrong); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if err := engine.Verify(ctx, key, code); err != nil {
		t.Fatalf("correct code after mismatch: %v", err)
	}
}

func TestVerifyAfterTTL(t *testing.T) {
	engine, clk := newMemoryEngine(t)
	ctx := context.Background()
	key := LoginKey("+14155552671")

	code, err := engine.Issue(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(time.Minute + time.Second)

	if err := engine.Verify(ctx, key, code); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected ErrNotFoundOrExpired after ttl, got %v", err)
	}
}

func TestVerifyNeverIssued(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	if err := engine.Verify(context.Background(), LoginKey("+14155552671"), "123456"); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected ErrNotFoundOrExpired, got %v", err)
	}
}

func TestReissueOverwritesPreviousCode(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	ctx := context.Background()
	key := LoginKey("+14155552671")

	first, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if first == second {
		t.Skip("random codes collided")
	}

	if err := engine.Verify(ctx, key, first); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected stale code to mismatch, got %v", err)
	}
	if err := engine.Verify(ctx, key, second); err != nil {
		t.Fatalf("verify latest code: %v", err)
	}
}

func TestConcurrentVerifyOnlyOneWins(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	assertSingleWinner(t, engine)
}

func assertSingleWinner(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()
	key := DeliveryKey("order-race")

	code, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = engine.Verify(ctx, key, code)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNotFoundOrExpired):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful verify, got %d", ok)
	}
}

func TestHasherEqual(t *testing.T) {
	h := NewHMACHasher([]byte("secret"))
	digest := h.Hash("123456")
	if len(digest) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(digest))
	}
	if !h.Equal(digest, "123456") {
		t.Fatalf("expected digest to match")
	}
	if h.Equal(digest, "123457") {
		t.Fatalf("expected different code not to match")
	}
	if NewHMACHasher([]byte("other")).Equal(digest, "123456") {
		t.Fatalf("expected rotated secret to invalidate digest")
	}
}

// reissuingStore replaces the record right after the first Get, the way a
// concurrent Issue for the same key would.
type reissuingStore struct {
	*MemoryStore
	once    sync.Once
	reissue func()
}

func (s *reissuingStore) Get(ctx context.Context, key string) (string, error) {
	hash, err := s.MemoryStore.Get(ctx, key)
	s.once.Do(s.reissue)
	return hash, err
}

func TestVerifyLosesToReissue(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	store := &reissuingStore{MemoryStore: NewMemoryStore(clk)}
	engine := NewEngine(store, NewHMACHasher([]byte("test-secret")), 5*time.Minute)
	ctx := context.Background()
	key := DeliveryKey("order-1")

	first, err := engine.Issue(ctx, key, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	var second string
	store.reissue = func() {
		for {
			code, err := engine.Issue(ctx, key, 0)
			if err != nil {
				t.Errorf("reissue: %v", err)
				return
			}
			if code != first {
				second = code
				return
			}
		}
	}

	if err := engine.Verify(ctx, key, first); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected stale code to lose, got %v", err)
	}
	if err := engine.Verify(ctx, key, second); err != nil {
		t.Fatalf("expected reissued code to verify: %v", err)
	}
}
