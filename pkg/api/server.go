// Package api exposes the product catalog over HTTP. The handlers are
// thin request/response glue over the cache manager; all caching policy
// lives in pkg/cache.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sheetshop/catalog/pkg/cache"
	"github.com/sheetshop/catalog/pkg/catalog"
	"github.com/sheetshop/catalog/pkg/logging"
)

// Prometheus metrics for API requests.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_api_requests_total",
		Help: "Total API requests by route and status",
	}, []string{"route", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_api_request_duration_seconds",
		Help:    "API request duration in seconds by route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"route"})
)

// Server holds the handler dependencies.
type Server struct {
	manager    *cache.Manager
	source     catalog.Source
	adminToken string
	logger     zerolog.Logger
}

// New creates an API server over the given cache manager and source.
// adminToken gates the add-product endpoint; authentication proper is an
// external concern, this is the fixed shared-secret interface to it.
func New(manager *cache.Manager, source catalog.Source, adminToken string) *Server {
	return &Server{
		manager:    manager,
		source:     source,
		adminToken: adminToken,
		logger:     logging.NewLogger("api"),
	}
}

// Routes returns the HTTP handler for all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", s.instrument("products", s.handleListProducts))
	mux.HandleFunc("GET /api/products/{id}", s.instrument("product_detail", s.handleProductDetail))
	mux.HandleFunc("GET /api/invalidate-cache", s.instrument("invalidate", s.handleInvalidate))
	mux.HandleFunc("POST /api/products/add", s.instrument("add_product", s.handleAddProduct))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// thumbnail is the listing-page projection of a product.
type thumbnail struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	PurchaseLink string `json:"purchase_link"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.manager.GetProducts(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Product list unavailable")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Could not retrieve product data.",
		})
		return
	}

	// The listing page only needs thumbnails, names and links. The same
	// image URL serves as thumbnail and full image.
	thumbnails := make([]thumbnail, 0, len(products))
	for _, p := range products {
		thumbnails = append(thumbnails, thumbnail{
			ID:           p.ID,
			Name:         p.Name,
			ThumbnailURL: p.ImageURL,
			PurchaseLink: p.PurchaseLink,
		})
	}

	writeJSON(w, http.StatusOK, thumbnails)
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found."})
		return
	}

	product, err := s.manager.GetProduct(r.Context(), id)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found."})
		return
	case err != nil:
		s.logger.Error().Err(err).Int("id", id).Msg("Product detail unavailable")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Could not retrieve product data.",
		})
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := s.manager.Invalidate(token); err != nil {
		// No detail leakage on bad tokens.
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Cache invalidated. Reloading in the background.",
	})
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized."})
		return
	}

	var p catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body."})
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name is required."})
		return
	}

	if err := s.source.Append(r.Context(), p); err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("Product append failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Could not add product."})
		return
	}

	// Make the new row visible without a manual invalidation.
	s.manager.ScheduleRefresh()

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Product added. Catalog will refresh shortly.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.manager.Snapshot() != nil {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
		return
	}

	// Empty cache: readiness means we can reach some tier or the source.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.manager.GetProducts(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "source unavailable")
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// authorized checks the bearer token on admin requests in constant time.
func (s *Server) authorized(r *http.Request) bool {
	if s.adminToken == "" {
		return false
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) == 1
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		apiRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		apiRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
