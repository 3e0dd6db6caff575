package gold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MelvinDY/SGM/internal/httputil"
	"github.com/MelvinDY/SGM/internal/logging"
)

// DefaultEndpoint serves XAU quotes in rupiah per troy ounce.
const DefaultEndpoint = "https://data-asg.goldprice.org/dbXRates/IDR"

// DefaultCurrency is the display currency of the storefront.
const DefaultCurrency = "IDR"

// ErrUpstream covers every way the spot-price source can fail: transport,
// non-2xx status, undecodable body or missing fields.
var ErrUpstream = errors.New("gold price upstream unavailable")

type Options struct {
	// Endpoint is the spot-price URL. Empty disables upstream requests and
	// every call is served by the synthetic generator.
	Endpoint string
	// APIKey is sent as x-access-token when set.
	APIKey   string
	Currency string

	// SyntheticBaseline is the per-ounce price the synthetic generator
	// fluctuates around, in Currency.
	SyntheticBaseline float64

	HTTPClient *http.Client
	Retry      httputil.RetryConfig
	Logger     *slog.Logger

	// Now and Rand replace the clock and random source in tests.
	Now  func() time.Time
	Rand Float64Source
}

type Service struct {
	endpoint string
	apiKey   string
	currency string
	baseline float64

	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *slog.Logger
	now        func() time.Time
	rng        Float64Source
}

func New(opts Options) *Service {
	s := &Service{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		currency:   opts.Currency,
		baseline:   opts.SyntheticBaseline,
		httpClient: opts.HTTPClient,
		retry:      opts.Retry,
		log:        logging.OrDiscard(opts.Logger).With("component", "gold"),
		now:        opts.Now,
		rng:        opts.Rand,
	}
	if s.currency == "" {
		s.currency = DefaultCurrency
	}
	if s.baseline <= 0 {
		s.baseline = DefaultSyntheticBaseline
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if s.retry.MaxAttempts <= 0 {
		s.retry = httputil.NoRetry
	}
	if s.retry.Logger == nil {
		s.retry.Logger = s.log
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = NewLockedRand(uint64(time.Now().UnixNano()))
	}
	return s
}

// Currency returns the currency quotes are expressed in.
func (s *Service) Currency() string { return s.currency }

// CurrentPrice returns the current spot price. Upstream failures are logged
// and replaced by a synthetic price, so the call always yields a usable value.
func (s *Service) CurrentPrice(ctx context.Context) SpotPrice {
	p, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn("using synthetic gold price", "err", err)
		return s.syntheticCurrent()
	}
	return p
}

// HistoricalPrice estimates the price at target from the current price and an
// average daily drift. The upstream has no history endpoint, so nothing is looked up.
func (s *Service) HistoricalPrice(ctx context.Context, target time.Time) SpotPrice {
	days := daysBefore(target, s.now())
	current := s.CurrentPrice(ctx)
	if !current.usable() {
		s.log.Warn("current price unusable, using synthetic history",
			"target", target.Format(time.DateOnly), "price", current.PricePerOunce)
		return s.syntheticHistorical(target, days)
	}
	return s.estimate(current, target, days)
}

// PriceHistory fetches the current price and one estimate per horizon concurrently.
func (s *Service) PriceHistory(ctx context.Context) PriceHistory {
	now := s.now()
	var h PriceHistory

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.Today = s.CurrentPrice(gctx)
		return nil
	})
	for _, hz := range horizons {
		ref := h.slotRef(hz.Name)
		g.Go(func() error {
			p := s.HistoricalPrice(gctx, now.AddDate(0, 0, -hz.Days))
			*ref = &p
			return nil
		})
	}
	_ = g.Wait()

	return h
}

// --- upstream ---

type ratesResponse struct {
	TS    int64 `json:"ts"`
	Items []struct {
		Curr     string   `json:"curr"`
		XAUPrice *float64 `json:"xauPrice"`
		ChgXAU   *float64 `json:"chgXau"`
		PcXAU    *float64 `json:"pcXau"`
	} `json:"items"`
}

func (s *Service) fetch(ctx context.Context) (SpotPrice, error) {
	if s.endpoint == "" {
		return SpotPrice{}, fmt.Errorf("%w: no endpoint configured", ErrUpstream)
	}

	var header http.Header
	if s.apiKey != "" {
		header = http.Header{}
		header.Set("x-access-token", s.apiKey)
	}

	var data ratesResponse
	if err := httputil.GetJSON(ctx, s.httpClient, s.retry, s.endpoint, header, &data); err != nil {
		return SpotPrice{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(data.Items) == 0 {
		return SpotPrice{}, fmt.Errorf("%w: empty items", ErrUpstream)
	}

	item := data.Items[0]
	if item.XAUPrice == nil || item.ChgXAU == nil || item.PcXAU == nil {
		return SpotPrice{}, fmt.Errorf("%w: missing price fields", ErrUpstream)
	}
	ounce := *item.XAUPrice
	if !finite(ounce) || ounce <= 0 {
		return SpotPrice{}, fmt.Errorf("%w: invalid price %v", ErrUpstream, ounce)
	}

	observed := s.now()
	if data.TS > 0 {
		observed = time.UnixMilli(data.TS)
	}
	currency := item.Curr
	if currency == "" {
		currency = s.currency
	}

	return SpotPrice{
		PricePerGram:  roundWhole(OunceToGram(ounce)),
		PricePerOunce: ounce,
		Currency:      currency,
		ObservedAt:    observed.UTC(),
		Change:        roundWhole(OunceToGram(*item.ChgXAU)),
		ChangePercent: *item.PcXAU,
		Kind:          KindLive,
	}, nil
}

// --- estimation ---

const (
	dailyDrift    = 0.002 // 0.2% per day
	driftScaleMin = 0.8
	driftScaleMax = 1.2
)

func (s *Service) estimate(current SpotPrice, target time.Time, days int) SpotPrice {
	r := seededRand(dayKey(target), uint64(days))
	scale := driftScaleMin + r.Float64()*(driftScaleMax-driftScaleMin)
	factor := math.Max(0, 1-dailyDrift*scale*float64(days))

	// An estimate is only as trustworthy as its base.
	kind := KindEstimated
	if !current.Live() {
		kind = KindSynthetic
	}

	ounce := current.PricePerOunce * factor
	return SpotPrice{
		PricePerGram:  roundWhole(OunceToGram(ounce)),
		PricePerOunce: ounce,
		Currency:      current.Currency,
		ObservedAt:    target.UTC(),
		Kind:          kind,
	}
}

// daysBefore counts whole days from target to now. Targets in the future count as 0.
func daysBefore(target, now time.Time) int {
	d := int(math.Floor(now.Sub(target).Hours() / 24))
	if d < 0 {
		return 0
	}
	return d
}

// dayKey identifies the calendar date of t in UTC, e.g. 20261018.
func dayKey(t time.Time) uint64 {
	u := t.UTC()
	return uint64(u.Year()*10000 + int(u.Month())*100 + u.Day())
}
