package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MelvinDY/SGM/internal/catalog"
	"github.com/MelvinDY/SGM/internal/external"
	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/repository"
)

var testNow = time.Date(2026, 10, 19, 2, 30, 0, 0, time.UTC)

type fakeGold struct{}

func (fakeGold) CurrentPrice(context.Context) gold.SpotPrice {
	return gold.SpotPrice{
		PricePerGram:  2337004,
		PricePerOunce: 72689000,
		Currency:      "IDR",
		ObservedAt:    testNow,
		Change:        10000,
		ChangePercent: 0.43,
		Kind:          gold.KindLive,
	}
}

func (f fakeGold) PriceHistory(ctx context.Context) gold.PriceHistory {
	today := f.CurrentPrice(ctx)
	y := today
	y.PricePerGram = 2300000
	y.Kind = gold.KindEstimated
	return gold.PriceHistory{Today: today, Yesterday: &y}
}

type fakePrices struct {
	points []models.PricePoint
}

func (f *fakePrices) GetLatest(context.Context) (*models.PricePoint, error) {
	if len(f.points) == 0 {
		return nil, nil
	}
	return &f.points[len(f.points)-1], nil
}

func (f *fakePrices) GetByDay(_ context.Context, day string) ([]models.PricePoint, error) {
	var out []models.PricePoint
	for _, p := range f.points {
		if p.MarketDay == day {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrices) GetAvailableDays(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakePrices) GetRange(_ context.Context, from, to time.Time) ([]models.PricePoint, error) {
	var out []models.PricePoint
	for _, p := range f.points {
		if !p.ObservedAt.Before(from) && p.ObservedAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeProducts struct {
	byID map[string]models.Product
}

func newFakeProducts(ps ...models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[string]models.Product{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) filter(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range f.byID {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeProducts) ListActive(context.Context) ([]models.Product, error) {
	return f.filter(func(p models.Product) bool { return p.IsActive }), nil
}

func (f *fakeProducts) ListByCategory(_ context.Context, c models.Category) ([]models.Product, error) {
	return f.filter(func(p models.Product) bool { return p.IsActive && p.Category == c }), nil
}

func (f *fakeProducts) ListFeatured(context.Context) ([]models.Product, error) {
	return f.filter(func(p models.Product) bool { return p.IsActive && p.IsFeatured }), nil
}

func (f *fakeProducts) ListAll(context.Context) ([]models.Product, error) {
	return f.filter(func(models.Product) bool { return true }), nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, in *models.ProductInsert) (*models.Product, error) {
	p := models.Product{
		ID: "new", Name: in.Name, Category: in.Category, Price: in.Price,
		IsActive: in.IsActive, IsFeatured: in.IsFeatured,
	}
	f.byID[p.ID] = p
	return &p, nil
}

func (f *fakeProducts) Update(_ context.Context, id string, u *models.ProductUpdate) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	if u.IsFeatured != nil {
		p.IsFeatured = *u.IsFeatured
	}
	f.byID[id] = p
	return &p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) SetActive(ctx context.Context, id string, v bool) (*models.Product, error) {
	return f.Update(ctx, id, &models.ProductUpdate{IsActive: &v})
}

func (f *fakeProducts) SetFeatured(ctx context.Context, id string, v bool) (*models.Product, error) {
	return f.Update(ctx, id, &models.ProductUpdate{IsFeatured: &v})
}

type fakeSyncer struct {
	err error
}

func (f fakeSyncer) Preview(context.Context) ([]catalog.ParsedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return catalog.ParsePosts(external.MockPosts(testNow)), nil
}

func (f fakeSyncer) Sync(context.Context) (*catalog.SyncResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.SyncResult{Fetched: 4, Added: 4, Status: models.SyncSuccess}, nil
}

func price(v float64) *float64 { return &v }

func newTestServer(t *testing.T) (*Server, *fakeProducts) {
	t.Helper()
	products := newFakeProducts(
		models.Product{ID: "ring", Name: "Cincin", Category: models.CategoryRing, Price: price(5500000), IsActive: true, IsFeatured: true},
		models.Product{ID: "draft", Name: "Kalung", Category: models.CategoryNecklace, IsActive: false},
	)
	s := NewServer(Deps{
		Gold:     fakeGold{},
		Prices:   &fakePrices{},
		Products: products,
		Importer: fakeSyncer{},
	}, Options{APIKey: "secret", USDRate: 15500})
	return s, products
}

func do(t *testing.T, s *Server, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if admin {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestGoldCurrent(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/v1/gold/current", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := decode[map[string]any](t, rr)
	if body["price"].(float64) != 2337004 || body["kind"] != "live" {
		t.Fatalf("unexpected body %v", body)
	}
	f := body["formatted"].(map[string]any)
	if !strings.Contains(f["gram"].(string), "2.337.004") {
		t.Fatalf("gram not formatted: %v", f["gram"])
	}
	if !strings.HasPrefix(f["usdGram"].(string), "$150.") {
		t.Fatalf("usd reference: %v", f["usdGram"])
	}
}

func TestGoldHistory(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/v1/gold/history", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := decode[map[string]any](t, rr)
	if body["weekAgo"] != nil {
		t.Fatalf("empty slot should be null, got %v", body["weekAgo"])
	}
	cmp := body["comparisons"].([]any)
	if len(cmp) != 4 {
		t.Fatalf("expected 4 comparisons, got %d", len(cmp))
	}
	first := cmp[0].(map[string]any)
	if first["change"].(map[string]any)["delta"].(float64) != 37004 {
		t.Fatalf("unexpected yesterday delta %v", first["change"])
	}
}

func TestGoldChange(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(t, s, http.MethodGet, "/v1/gold/change?current=100&previous=90", "", false)
	body := decode[map[string]any](t, rr)
	if body["delta"].(float64) != 10 {
		t.Fatalf("delta = %v", body["delta"])
	}

	rr = do(t, s, http.MethodGet, "/v1/gold/change?current=100&previous=0", "", false)
	body = decode[map[string]any](t, rr)
	if body["deltaPercent"] != nil {
		t.Fatalf("zero previous should give null percent, got %v", body["deltaPercent"])
	}

	rr = do(t, s, http.MethodGet, "/v1/gold/change?current=100", "", false)
	body = decode[map[string]any](t, rr)
	if body["delta"].(float64) != 0 || body["deltaPercent"].(float64) != 0 {
		t.Fatalf("missing previous should give zero change, got %v", body)
	}

	for _, q := range []string{"", "?current=abc", "?current=NaN", "?current=1&previous=x"} {
		if rr := do(t, s, http.MethodGet, "/v1/gold/change"+q, "", false); rr.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestPrices_DatabaseDisabled(t *testing.T) {
	s := NewServer(Deps{Gold: fakeGold{}}, Options{})
	for _, path := range []string{"/v1/prices/latest", "/v1/prices/today", "/v1/products"} {
		if rr := do(t, s, http.MethodGet, path, "", false); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rr.Code)
		}
	}
	rr := do(t, s, http.MethodGet, "/health", "", false)
	body := decode[healthResponse](t, rr)
	if body.Services.Database != "disabled" {
		t.Fatalf("health database = %q", body.Services.Database)
	}
}

func TestPrices_LatestEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	if rr := do(t, s, http.MethodGet, "/v1/prices/latest", "", false); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/v1/prices/day/2026-13-01", "", false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}
	rr := do(t, s, http.MethodGet, "/v1/prices/days", "", false)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestProducts_Public(t *testing.T) {
	s, _ := newTestServer(t)

	list := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/v1/products", "", false))
	if len(list) != 1 || list[0]["id"] != "ring" {
		t.Fatalf("only active products expected, got %v", list)
	}
	if !strings.Contains(list[0]["formatted_price"].(string), "5.500.000") {
		t.Fatalf("formatted price: %v", list[0]["formatted_price"])
	}

	featured := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/v1/products/featured", "", false))
	if len(featured) != 1 {
		t.Fatalf("expected 1 featured, got %d", len(featured))
	}

	rings := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/v1/products/category/cincin", "", false))
	if len(rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(rings))
	}
	if rr := do(t, s, http.MethodGet, "/v1/products/category/bros", "", false); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown category: expected 400, got %d", rr.Code)
	}

	if rr := do(t, s, http.MethodGet, "/v1/products/ring", "", false); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/v1/products/draft", "", false); rr.Code != http.StatusNotFound {
		t.Fatalf("drafts should be hidden, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/v1/products/missing", "", false); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAdminProducts(t *testing.T) {
	s, products := newTestServer(t)

	if rr := do(t, s, http.MethodGet, "/v1/admin/products", "", false); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	all := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/v1/admin/products", "", true))
	if len(all) != 2 {
		t.Fatalf("admin list should include drafts, got %d", len(all))
	}

	rr := do(t, s, http.MethodPost, "/v1/admin/products", `{"name":"Gelang Ukir","category":"gelang","price":3200000}`, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rr.Code, rr.Body.String())
	}
	if products.byID["new"].Category != models.CategoryBracelet {
		t.Fatalf("category should be normalized, got %q", products.byID["new"].Category)
	}

	if rr := do(t, s, http.MethodPost, "/v1/admin/products", `{"name":"","category":"Cincin"}`, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid insert: expected 400, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/v1/admin/products", `{`, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodPut, "/v1/admin/products/ring", `{"name":"Cincin Kawin"}`, true)
	if rr.Code != http.StatusOK || products.byID["ring"].Name != "Cincin Kawin" {
		t.Fatalf("update: status %d name %q", rr.Code, products.byID["ring"].Name)
	}

	rr = do(t, s, http.MethodPost, "/v1/admin/products/draft/active", `{"is_active":true}`, true)
	if rr.Code != http.StatusOK || !products.byID["draft"].IsActive {
		t.Fatalf("set active: status %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/v1/admin/products/draft/featured", `{}`, true); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing flag: expected 400, got %d", rr.Code)
	}

	if rr := do(t, s, http.MethodDelete, "/v1/admin/products/ring", "", true); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodDelete, "/v1/admin/products/ring", "", true); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestAdminInstagram(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/v1/admin/instagram/sync", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("sync: status %d", rr.Code)
	}
	res := decode[catalog.SyncResult](t, rr)
	if res.Added != 4 || res.Status != models.SyncSuccess {
		t.Fatalf("unexpected result %+v", res)
	}

	posts := decode[[]map[string]any](t, do(t, s, http.MethodGet, "/v1/admin/instagram/posts", "", true))
	if len(posts) != 4 || posts[0]["suggestedName"] == "" {
		t.Fatalf("unexpected preview %v", posts)
	}

	if rr := do(t, s, http.MethodGet, "/v1/admin/instagram/logs", "", true); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("logs without store: expected 503, got %d", rr.Code)
	}

	s.importer = fakeSyncer{err: external.ErrInstagramNotConfigured}
	if rr := do(t, s, http.MethodPost, "/v1/admin/instagram/sync", "", true); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured: expected 503, got %d", rr.Code)
	}
	s.importer = fakeSyncer{err: errors.New("boom")}
	if rr := do(t, s, http.MethodPost, "/v1/admin/instagram/sync", "", true); rr.Code != http.StatusBadGateway {
		t.Fatalf("upstream failure: expected 502, got %d", rr.Code)
	}
}

func TestPriceExport(t *testing.T) {
	s, _ := newTestServer(t)
	s.prices = &fakePrices{points: []models.PricePoint{
		{ObservedAt: time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC), MarketDay: "2026-10-18", PricePerGram: 2337004, Source: "live"},
		{ObservedAt: time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC), MarketDay: "2026-09-01", PricePerGram: 2300000, Source: "live"},
	}}

	if rr := do(t, s, http.MethodGet, "/v1/admin/prices/export", "", false); rr.Code != http.StatusUnauthorized {
		t.Fatalf("export must require the admin key, got %d", rr.Code)
	}

	rr := do(t, s, http.MethodGet, "/v1/admin/prices/export?from=2026-10-18&to=2026-10-18", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "harga-emas_2026-10-18_2026-10-18.xlsx") {
		t.Fatalf("disposition %q", rr.Header().Get("Content-Disposition"))
	}
	if rr.Body.Len() == 0 {
		t.Fatal("expected workbook bytes")
	}

	for _, q := range []string{"?from=2026-10-19&to=2026-10-18", "?from=bad", "?from=2024-01-01&to=2026-10-18"} {
		if rr := do(t, s, http.MethodGet, "/v1/admin/prices/export"+q, "", true); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestExportRange_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/prices/export", nil)
	from, to, start, end, err := exportRange(req, "2026-10-19")
	if err != nil {
		t.Fatalf("exportRange: %v", err)
	}
	if from != "2026-09-20" || to != "2026-10-19" {
		t.Fatalf("default range %s..%s", from, to)
	}
	if got := end.Sub(start); got != 30*24*time.Hour {
		t.Fatalf("expected 30 days, got %s", got)
	}
}
