package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/internal/session"
	"github.com/yegors/co-wx/internal/websocket"
	"github.com/yegors/co-wx/pkg/logger"
)

// Router wires the HTTP surface together
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	static   http.Handler
	logger   *logger.Logger
}

// NewRouter creates a new router. wsServer may be nil to disable /ws.
func NewRouter(weatherService session.Backend, cfg *config.Config, wsServer *websocket.Server, log *logger.Logger) *Router {
	var clients ClientCounter
	if wsServer != nil {
		clients = wsServer
	}

	r := &Router{
		handler:  NewHandler(weatherService, cfg, clients, log),
		wsServer: wsServer,
		logger:   log.Named("router"),
	}
	if cfg.Server.StaticFilesDir != "" {
		r.static = NewStaticFileHandler(cfg.Server.StaticFilesDir, log)
	}
	return r
}

// Routes returns the router's handler
func (r *Router) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger(r.logger))
	mux.Use(middleware.Recoverer)

	mux.Route("/api", func(api chi.Router) {
		api.Get("/health", r.handler.GetHealth)
		api.Get("/weather", r.handler.GetWeather)
		api.Get("/forecast/daily", r.handler.GetDailyForecast)
		api.Get("/forecast/hourly", r.handler.GetHourlyForecast)
		api.Get("/suggest", r.handler.GetSuggestions)
		api.Get("/preferences/last-city", r.handler.GetLastCity)
	})

	if r.wsServer != nil {
		mux.Get("/ws", r.wsServer.HandleConnection)
	}

	mux.Get("/", r.handler.GetPage)
	if r.static != nil {
		mux.Handle("/*", r.static)
	}

	return mux
}

// requestLogger logs every request at debug level once it completes
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, req)

			log.Debug("HTTP request",
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_addr", req.RemoteAddr),
				logger.String("request_id", middleware.GetReqID(req.Context())))
		})
	}
}
