package scheduler_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/scheduler"
)

type fakeQuoter struct {
	mu    sync.Mutex
	price gold.SpotPrice
	calls atomic.Int32
}

func (q *fakeQuoter) CurrentPrice(context.Context) gold.SpotPrice {
	q.calls.Add(1)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.price
}

type fakeRecorder struct {
	mu   sync.Mutex
	rows []gold.SpotPrice
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, p gold.SpotPrice) (*models.PricePoint, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, p)
	return &models.PricePoint{ID: int64(len(r.rows)), PricePerGram: p.PricePerGram}, nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeNotifier struct {
	mu       sync.Mutex
	msgs     []string
	attempts int
	failures int // leading sends that fail
}

func (n *fakeNotifier) Send(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.attempts <= n.failures {
		return errors.New("webhook returned HTTP 502")
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

var observed = time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)

func livePrice(pct float64) gold.SpotPrice {
	return gold.SpotPrice{
		PricePerGram:  2337004,
		PricePerOunce: 72689000,
		Currency:      "IDR",
		ObservedAt:    observed,
		ChangePercent: pct,
		Kind:          gold.KindLive,
	}
}

func TestPollNow_RecordsLiveQuotes(t *testing.T) {
	q := &fakeQuoter{price: livePrice(0.4)}
	rec := &fakeRecorder{}
	var seen gold.SpotPrice
	p := scheduler.NewPricePoller(q, rec, nil, scheduler.PollerConfig{
		OnPrice: func(sp gold.SpotPrice) { seen = sp },
	})

	got, err := p.PollNow(context.Background())
	if err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	if got.PricePerGram != 2337004 || seen.PricePerGram != 2337004 {
		t.Fatalf("unexpected price %+v", got)
	}
	if rec.count() != 1 {
		t.Fatalf("expected one stored row, got %d", rec.count())
	}
	latest, ok := p.Latest()
	if !ok || latest.Kind != gold.KindLive {
		t.Fatal("Latest should hold the polled quote")
	}
}

func TestPollNow_SkipsSyntheticQuotes(t *testing.T) {
	sp := livePrice(3)
	sp.Kind = gold.KindSynthetic
	rec := &fakeRecorder{}
	n := &fakeNotifier{}
	p := scheduler.NewPricePoller(&fakeQuoter{price: sp}, rec, n, scheduler.PollerConfig{AlertChangePercent: 2})

	if _, err := p.PollNow(context.Background()); err != nil {
		t.Fatalf("PollNow: %v", err)
	}
	if rec.count() != 0 {
		t.Fatal("synthetic quotes must not be stored")
	}
	if len(n.msgs) != 0 {
		t.Fatal("synthetic quotes must not alert")
	}
}

func TestPollNow_AlertsOncePerDay(t *testing.T) {
	q := &fakeQuoter{price: livePrice(-2.5)}
	n := &fakeNotifier{}
	p := scheduler.NewPricePoller(q, nil, n, scheduler.PollerConfig{AlertChangePercent: 2})

	for i := 0; i < 3; i++ {
		if _, err := p.PollNow(context.Background()); err != nil {
			t.Fatalf("PollNow: %v", err)
		}
	}
	if len(n.msgs) != 1 {
		t.Fatalf("expected one alert, got %d", len(n.msgs))
	}
	if !strings.Contains(n.msgs[0], "down 2.50%") {
		t.Fatalf("unexpected alert %q", n.msgs[0])
	}

	// next market day alerts again
	q.mu.Lock()
	q.price.ObservedAt = observed.Add(24 * time.Hour)
	q.mu.Unlock()
	p.PollNow(context.Background())
	if len(n.msgs) != 2 {
		t.Fatalf("expected a second alert on the next day, got %d", len(n.msgs))
	}
}

func TestPollNow_FailedAlertRetriesSameDay(t *testing.T) {
	n := &fakeNotifier{failures: 1}
	p := scheduler.NewPricePoller(&fakeQuoter{price: livePrice(3.1)}, nil, n, scheduler.PollerConfig{AlertChangePercent: 2})

	for i := 0; i < 3; i++ {
		if _, err := p.PollNow(context.Background()); err != nil {
			t.Fatalf("PollNow: %v", err)
		}
	}
	if n.attempts != 2 {
		t.Fatalf("expected a retry after the failed delivery and nothing after success, got %d attempts", n.attempts)
	}
	if len(n.msgs) != 1 || !strings.Contains(n.msgs[0], "up 3.10%") {
		t.Fatalf("expected one delivered alert, got %q", n.msgs)
	}
}

func TestPollNow_BelowThreshold(t *testing.T) {
	n := &fakeNotifier{}
	p := scheduler.NewPricePoller(&fakeQuoter{price: livePrice(1.99)}, nil, n, scheduler.PollerConfig{AlertChangePercent: 2})
	p.PollNow(context.Background())
	if len(n.msgs) != 0 {
		t.Fatal("no alert expected below threshold")
	}
}

func TestPollNow_RecordError(t *testing.T) {
	p := scheduler.NewPricePoller(&fakeQuoter{price: livePrice(0)}, &fakeRecorder{err: errors.New("db down")}, nil, scheduler.PollerConfig{})
	if _, err := p.PollNow(context.Background()); err == nil {
		t.Fatal("expected record error")
	}
}

func TestPricePoller_StartStop(t *testing.T) {
	q := &fakeQuoter{price: livePrice(0)}
	p := scheduler.NewPricePoller(q, &fakeRecorder{}, nil, scheduler.PollerConfig{Interval: 10 * time.Millisecond})

	p.Start()
	if !p.Running() {
		t.Fatal("expected running")
	}
	p.Start() // second start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for q.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	if p.Running() {
		t.Fatal("expected stopped")
	}
	if q.calls.Load() < 2 {
		t.Fatalf("expected initial and ticked polls, got %d", q.calls.Load())
	}

	after := q.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if q.calls.Load() != after {
		t.Fatal("poller kept running after Stop")
	}
	p.Stop() // idempotent
}
