package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MelvinDY/SGM/internal/catalog"
	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/logging"
	"github.com/MelvinDY/SGM/internal/models"
)

const maxQueryLimit = 1000

const adminPrefix = "/v1/admin/"

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var errDatabaseDisabled = errors.New("database disabled")

type GoldQuoter interface {
	CurrentPrice(ctx context.Context) gold.SpotPrice
	PriceHistory(ctx context.Context) gold.PriceHistory
}

type PriceStore interface {
	GetLatest(ctx context.Context) (*models.PricePoint, error)
	GetByDay(ctx context.Context, marketDay string) ([]models.PricePoint, error)
	GetAvailableDays(ctx context.Context) ([]string, error)
	GetRange(ctx context.Context, from, to time.Time) ([]models.PricePoint, error)
}

type ProductStore interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, c models.Category) ([]models.Product, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.ProductInsert) (*models.Product, error)
	Update(ctx context.Context, id string, u *models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*models.Product, error)
	SetFeatured(ctx context.Context, id string, featured bool) (*models.Product, error)
}

type SyncLogStore interface {
	Recent(ctx context.Context, limit int) ([]models.InstagramSyncLog, error)
}

type CatalogSyncer interface {
	Preview(ctx context.Context) ([]catalog.ParsedPost, error)
	Sync(ctx context.Context) (*catalog.SyncResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the routes. Everything but Gold is optional;
// routes whose store is nil answer 503.
type Deps struct {
	Gold     GoldQuoter
	Prices   PriceStore
	Products ProductStore
	SyncLogs SyncLogStore
	Importer CatalogSyncer
	DB       Pinger
	Hub      *Hub
	Logger   *slog.Logger
}

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string
	// USDRate converts the display currency into US dollars for reference prices. 0 omits them.
	USDRate float64
}

type Server struct {
	gold       GoldQuoter
	prices     PriceStore
	products   ProductStore
	syncLogs   SyncLogStore
	importer   CatalogSyncer
	db         Pinger
	hub        *Hub
	log        *slog.Logger
	httpServer *http.Server
	apiKey     string
	usdRate    float64
}

func NewServer(deps Deps, opts Options) *Server {
	s := &Server{
		gold:     deps.Gold,
		prices:   deps.Prices,
		products: deps.Products,
		syncLogs: deps.SyncLogs,
		importer: deps.Importer,
		db:       deps.DB,
		hub:      deps.Hub,
		log:      logging.OrDiscard(deps.Logger).With("component", "api"),
		apiKey:   opts.APIKey,
		usdRate:  opts.USDRate,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.authMiddleware(corsMiddleware(s.routes(), opts.CORSOrigin)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

type route struct {
	pattern string
	handler http.HandlerFunc
}

// routeTable lists every endpoint in registration order.
func (s *Server) routeTable() []route {
	rs := []route{
		// Gold routes
		{"GET /v1/gold/current", s.handleGoldCurrent},
		{"GET /v1/gold/history", s.handleGoldHistory},
		{"GET /v1/gold/change", s.handleGoldChange},

		// Stored price routes
		{"GET /v1/prices/today", s.handlePricesToday},
		{"GET /v1/prices/day/{date}", s.handlePricesByDay},
		{"GET /v1/prices/days", s.handleAvailableDays},
		{"GET /v1/prices/latest", s.handleLatestPrice},

		// Public catalog
		{"GET /v1/products", s.handleProducts},
		{"GET /v1/products/featured", s.handleFeaturedProducts},
		{"GET /v1/products/category/{category}", s.handleProductsByCategory},
		{"GET /v1/products/{id}", s.handleProduct},

		// Admin routes
		{"GET /v1/admin/products", s.handleAdminProducts},
		{"POST /v1/admin/products", s.handleCreateProduct},
		{"PUT /v1/admin/products/{id}", s.handleUpdateProduct},
		{"DELETE /v1/admin/products/{id}", s.handleDeleteProduct},
		{"POST /v1/admin/products/{id}/active", s.handleSetActive},
		{"POST /v1/admin/products/{id}/featured", s.handleSetFeatured},
		{"GET /v1/admin/prices/export", s.handlePriceExport},
		{"GET /v1/admin/instagram/posts", s.handleInstagramPreview},
		{"POST /v1/admin/instagram/sync", s.handleInstagramSync},
		{"GET /v1/admin/instagram/logs", s.handleInstagramLogs},

		// Health check (no auth required)
		{"GET /health", s.handleHealth},
	}
	if s.hub != nil {
		rs = append(rs, route{"GET /v1/gold/stream", s.handleStream})
	}
	return rs
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range s.routeTable() {
		mux.HandleFunc(rt.pattern, rt.handler)
	}
	return mux
}

// Handler exposes the full middleware chain, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info("REST API server started",
		"addr", "http://localhost"+s.httpServer.Addr,
		"admin_auth", s.apiKey != "")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

// authMiddleware guards the admin routes with the Bearer API key.
// Public routes and /health are always open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || !strings.HasPrefix(r.URL.Path, adminPrefix) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse(time.DateOnly, date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeUnavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, errDatabaseDisabled.Error())
}
