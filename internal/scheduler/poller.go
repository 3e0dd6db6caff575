package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/logging"
	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/notifications"
	"github.com/MelvinDY/SGM/internal/repository"
)

// Quoter is the part of gold.Service the poller drives.
type Quoter interface {
	CurrentPrice(ctx context.Context) gold.SpotPrice
}

type Recorder interface {
	Record(ctx context.Context, p gold.SpotPrice) (*models.PricePoint, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

type PollerConfig struct {
	Interval time.Duration // e.g. 5*time.Minute
	// AlertChangePercent triggers a notification when |ChangePercent| reaches it. 0 disables alerts.
	AlertChangePercent float64
	// OnPrice receives every polled quote, live or synthetic.
	OnPrice func(p gold.SpotPrice)
	Logger  *slog.Logger
}

// PricePoller samples the current price on a fixed interval, stores live quotes
// and raises at most one alert per market day.
type PricePoller struct {
	quoter   Quoter
	recorder Recorder
	notifier Notifier
	cfg      PollerConfig
	log      *slog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	done      chan struct{}
	latest    *gold.SpotPrice
	alertedOn string
}

// NewPricePoller builds a poller. recorder and notifier may be nil.
func NewPricePoller(q Quoter, recorder Recorder, notifier Notifier, cfg PollerConfig) *PricePoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &PricePoller{
		quoter:   q,
		recorder: recorder,
		notifier: notifier,
		cfg:      cfg,
		log:      logging.OrDiscard(cfg.Logger).With("component", "poller"),
	}
}

func (p *PricePoller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.log.Warn("already running")
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stopCh, p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.tick(stop)

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tick(stop)
			}
		}
	}()

	p.log.Info("started", "interval", p.cfg.Interval, "alert_percent", p.cfg.AlertChangePercent)
}

// Stop halts the ticker and waits for an in-flight poll to finish.
func (p *PricePoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	done := p.done
	p.mu.Unlock()

	<-done
	p.log.Info("stopped")
}

func (p *PricePoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Latest returns the most recent polled quote, if any.
func (p *PricePoller) Latest() (gold.SpotPrice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return gold.SpotPrice{}, false
	}
	return *p.latest, true
}

// PollNow runs one poll outside the schedule.
func (p *PricePoller) PollNow(ctx context.Context) (gold.SpotPrice, error) {
	return p.poll(ctx)
}

func (p *PricePoller) tick(stop <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := p.poll(ctx); err != nil {
		p.log.Error("poll failed", "err", err)
	}
}

func (p *PricePoller) poll(ctx context.Context) (gold.SpotPrice, error) {
	price := p.quoter.CurrentPrice(ctx)

	p.mu.Lock()
	p.latest = &price
	p.mu.Unlock()

	if p.cfg.OnPrice != nil {
		p.cfg.OnPrice(price)
	}

	if !price.Live() {
		p.log.Debug("skipping non-live quote", "kind", price.Kind)
		return price, nil
	}

	if p.recorder != nil {
		if _, err := p.recorder.Record(ctx, price); err != nil {
			return price, fmt.Errorf("record price: %w", err)
		}
	}
	p.log.Info("price recorded", "gram", price.PricePerGram, "change_pct", price.ChangePercent)

	p.maybeAlert(ctx, price)
	return price, nil
}

func (p *PricePoller) maybeAlert(ctx context.Context, price gold.SpotPrice) {
	if p.notifier == nil || p.cfg.AlertChangePercent <= 0 {
		return
	}
	if math.Abs(price.ChangePercent) < p.cfg.AlertChangePercent {
		return
	}

	day := repository.MarketDay(price.ObservedAt)
	p.mu.Lock()
	if p.alertedOn == day {
		p.mu.Unlock()
		return
	}
	p.alertedOn = day
	p.mu.Unlock()

	if err := p.notifier.Send(ctx, notifications.PriceAlert(price)); err != nil {
		p.log.Warn("alert not delivered", "err", err)
		// Undelivered alerts do not count against the day.
		p.mu.Lock()
		if p.alertedOn == day {
			p.alertedOn = ""
		}
		p.mu.Unlock()
	}
}
