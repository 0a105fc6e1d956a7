package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	apihttp "github.com/GriffinCanCode/TeachOS/kernel/internal/api/http"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/api/middleware"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/api/ws"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/config"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
)

// Deps are the components the API surface exposes.
type Deps struct {
	Kernel    *kernel.Kernel
	Hub       *ws.Hub
	Scenarios []apihttp.ScenarioInfo
	Metrics   *monitoring.Metrics
}

// Server is the simulator's HTTP surface: introspection routes, the
// metrics scrape endpoint, and the WebSocket event stream.
type Server struct {
	router *gin.Engine
	srv    *http.Server
	cfg    *config.Config
	log    *logging.Logger

	mu sync.Mutex
	ln net.Listener
}

// New assembles the router and middleware.
func New(cfg *config.Config, log *logging.Logger, deps Deps) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Metrics != nil {
		router.Use(monitoring.Middleware(deps.Metrics))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst))
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(deps.Kernel, deps.Scenarios, log)
	router.GET("/health", handlers.Health)
	router.GET("/processes", handlers.ListProcesses)
	router.GET("/processes/:pid", handlers.GetProcess)
	router.GET("/threads", handlers.ListThreads)
	router.GET("/scenarios", handlers.ListScenarios)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Hub != nil {
		router.GET("/events", deps.Hub.Handle)
	}

	return &Server{
		router: router,
		srv:    &http.Server{Handler: router},
		cfg:    cfg,
		log:    log,
	}
}

// Run listens and serves until Shutdown. The listener is capped at the
// configured connection limit.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("Serving introspection API",
		zap.String("addr", ln.Addr().String()),
		zap.Int("max_conns", s.cfg.Server.MaxConns))

	limited := netutil.LimitListener(ln, s.cfg.Server.MaxConns)
	if err := s.srv.Serve(limited); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound listen address, or empty before Run listens.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.srv.Shutdown(ctx)
}
