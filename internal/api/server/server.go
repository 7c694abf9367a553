package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/api/handler"
	"github.com/xela07ax/afr-platform/internal/infra"
)

type APIServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Обработчики бизнес-доменов
	ingestHandler    *handler.IngestHandler    // /ingest
	runHandler       *handler.RunHandler       // /runs
	keyframeHandler  *handler.KeyframeHandler  // /runs/{id}/keyframes
	analyticsHandler *handler.AnalyticsHandler // /analytics, /reports
}

// NewAPIServer инициализирует HTTP-сервер платформы со всеми зависимостями
func NewAPIServer(
	cfg *infra.Config,
	logger *zap.Logger,
	promReg *prometheus.Registry,
	ingestH *handler.IngestHandler,
	runH *handler.RunHandler,
	keyframeH *handler.KeyframeHandler,
	analyticsH *handler.AnalyticsHandler,
) *APIServer {
	s := &APIServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("api-server"),
		cfg:              cfg,
		ingestHandler:    ingestH,
		runHandler:       runH,
		keyframeHandler:  keyframeH,
		analyticsHandler: analyticsH,
	}

	s.routes(promReg)
	return s
}

func (s *APIServer) routes(promReg *prometheus.Registry) {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Healthcheck для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Метрики Prometheus
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	// --- 2. Ингест (отдельная группа: на входном потоке висит rate limit) ---
	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.cfg.Ingest, s.logger))
		r.Post("/ingest", s.ingestHandler.Ingest)
	})

	// --- 3. Read-side: раны, таймлайны, дифф, кифреймы ---
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.runHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.runHandler.Get)              // Детали рана
			r.Get("/events", s.runHandler.Events)     // Таймлайн + correlationServer
			r.Get("/diff", s.runHandler.Diff)         // Семантический дифф двух ранов
			r.Get("/last-green", s.runHandler.LastGreen) // Подбор baseline

			r.Route("/keyframes", func(r chi.Router) {
				r.Post("/", s.keyframeHandler.Add)
				r.Get("/", s.keyframeHandler.List)
				r.Get("/{keyframeID}", s.keyframeHandler.Get)
			})
		})
	})

	// --- 4. Аналитика и отчеты (Observability) ---
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/overview", s.analyticsHandler.Overview)
		r.Get("/providers", s.analyticsHandler.Providers)
		r.Get("/performance", s.analyticsHandler.Performance)
		r.Get("/correlations", s.analyticsHandler.Correlations)
	})
	r.Get("/reports/sessions", s.analyticsHandler.Sessions)
}

// ServeHTTP позволяет использовать APIServer как стандартный http.Handler
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
