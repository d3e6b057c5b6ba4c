package httpapi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/market"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// Pinger reports database health
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Addr        string
	APIToken    string // empty disables authentication
	CORSOrigins []string
	Log         zerolog.Logger
	Reports     *report.ReportService
	Market      *market.MarketService
	DB          Pinger
}

// Server serves reports and CSV exports over HTTP
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	reports *report.ReportService
	market  *market.MarketService
	db      Pinger
	token   string
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "http").Logger(),
		reports: cfg.Reports,
		market:  cfg.Market,
		db:      cfg.DB,
		token:   cfg.APIToken,
	}

	s.setupMiddleware(cfg.CORSOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/reports/{date}", s.handleDailyReport)
		r.Get("/attribution/{ticker}", s.handleTickerAttribution)
		r.Get("/history", s.handleHistory)
		r.Get("/export/{view}.csv", s.handleExport)

		r.Get("/market/keys", s.handleMarketKeys)
		r.Get("/prices", s.handlePrices)
		r.Get("/fx", s.handleFx)
		r.Get("/snapshots", s.handleSnapshots)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	daily, err := s.reports.Daily(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.DailyDocument(daily))
}

// handleHistory serves ?start=&end=&limit=; without start and end the whole stored range
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryLimit(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var h *report.HistoryReport
	if q.Get("start") == "" && q.Get("end") == "" {
		h, err = s.reports.FullHistory(r.Context(), limit)
	} else {
		var start, end time.Time
		if start, end, err = queryRange(q); err == nil {
			h, err = s.reports.History(r.Context(), start, end, limit)
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.HistoryDocument(h))
}

// handleTickerAttribution serves the attribution and weight of one ticker on ?date=
func (s *Server) handleTickerAttribution(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	t, err := s.reports.Ticker(r.Context(), chi.URLParam(r, "ticker"), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.TickerAttributionDocument(t.Row, t.Weight))
}

func (s *Server) handleMarketKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.market.Keys(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.KeysDocument(keys))
}

// handlePrices serves ?tickers=A,B&start=&end=; without tickers every stored ticker
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := queryRange(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	prices, err := s.market.PriceHistory(r.Context(), queryList(q, "tickers"), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.PriceHistoryDocument(start, end, prices))
}

// handleFx serves ?pairs=USDJPY,EURJPY&start=&end=; without pairs every stored pair
func (s *Server) handleFx(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := queryRange(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rates, err := s.market.FxHistory(r.Context(), queryList(q, "pairs"), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.FxHistoryDocument(start, end, rates))
}

// handleSnapshots serves the recorded snapshots, newest first, with an optional ?limit=
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	snapshots, err := s.market.Snapshots(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, presenter.SnapshotListDocument(snapshots))
}

// handleExport serves one view of a daily report as CSV
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	daily, err := s.reports.Daily(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	table, err := presenter.DailyView(daily, view)
	if err != nil {
		s.writeError(w, err)
		return
	}

	filename := view + "_" + domain.FormatDate(date) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(table.Header)
	_ = cw.WriteAll(table.Rows)
	if err := cw.Error(); err != nil {
		s.log.Error().Err(err).Str("view", view).Msg("Failed to write CSV")
	}
}

func queryLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Join(domain.ErrInvalidInput, errors.New("limit must be a non-negative integer"))
	}
	return n, nil
}

// queryRange parses the required start and end parameters
func queryRange(q url.Values) (time.Time, time.Time, error) {
	start, startErr := domain.ParseDate(q.Get("start"))
	end, endErr := domain.ParseDate(q.Get("end"))
	return start, end, errors.Join(startErr, endErr)
}

// queryList splits a comma separated parameter
func queryList(q url.Values, key string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(q.Get(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// requireToken checks "Authorization: Bearer <token>" when a token is configured
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.token {
				s.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingReferenceData),
		errors.Is(err, domain.ErrFxGap),
		errors.Is(err, domain.ErrNoBaseline):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	s.writeJSON(w, code, map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
