// FILE: logvault/src/internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"logvault/src/internal/auth"
	"logvault/src/internal/config"
	"logvault/src/internal/ingest"
	"logvault/src/internal/metrics"
	"logvault/src/internal/query"
	"logvault/src/internal/store"
	"logvault/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/valyala/fasthttp"
)

// Deps are the components served by the API
type Deps struct {
	Auth     *auth.Service
	Ingestor *ingest.Ingestor
	Engine   *query.Engine
	Store    store.Store
	// Metrics may be nil when metrics are disabled
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

type route struct {
	method  string
	gates   Pipeline
	handler fasthttp.RequestHandler
}

// Server is the HTTP front end
type Server struct {
	cfg         config.ServerConfig
	metricsPath string
	deps        Deps
	logger      *log.Logger
	server      *fasthttp.Server
	routes      map[string]route
	wg          sync.WaitGroup

	// Statistics
	totalRequests atomic.Uint64
	clientErrors  atomic.Uint64
	serverErrors  atomic.Uint64
	startTime     time.Time
}

// New builds the server and its route table
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg.Server,
		deps:      deps,
		logger:    deps.Logger,
		startTime: time.Now(),
	}
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		s.metricsPath = cfg.Metrics.Path
	}

	s.buildRoutes()

	s.server = &fasthttp.Server{
		Name:               version.ServerName(),
		Handler:            s.requestHandler,
		Logger:             compat.NewFastHTTPAdapter(s.logger),
		ReadTimeout:        time.Duration(cfg.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:       time.Duration(cfg.Server.WriteTimeoutMS) * time.Millisecond,
		MaxRequestBodySize: int(cfg.Server.MaxBodySize),
		CloseOnShutdown:    true,
	}

	return s
}

func (s *Server) buildRoutes() {
	bearer := Pipeline{RequireBearer(s.deps.Auth.Tokens(), s.deps.Metrics)}

	s.routes = map[string]route{
		"/register":             {method: fasthttp.MethodPost, handler: s.handleRegister},
		"/login":                {method: fasthttp.MethodPost, handler: s.handleLogin},
		"/ingest":               {method: fasthttp.MethodPost, gates: bearer, handler: s.handleIngest},
		"/logs":                 {method: fasthttp.MethodGet, gates: bearer, handler: s.handleSearch},
		"/logsByMessage":        {method: fasthttp.MethodGet, gates: bearer, handler: s.handleByMessage},
		"/logsByTimestampRange": {method: fasthttp.MethodGet, gates: bearer, handler: s.handleByTimestampRange},
		"/health":               {method: fasthttp.MethodGet, handler: s.handleHealth},
		"/status":               {method: fasthttp.MethodGet, handler: s.handleStatus},
	}

	for path, param := range fieldRoutes {
		s.routes[path] = route{method: fasthttp.MethodGet, gates: bearer, handler: s.fieldHandler(path, param)}
	}

	if s.metricsPath != "" {
		s.routes[s.metricsPath] = route{method: fasthttp.MethodGet, handler: s.deps.Metrics.Handler()}
	}
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.logger.Info("msg", "HTTP server starting",
		"component", "api",
		"addr", addr,
		"metrics_path", s.metricsPath)

	s.Serve(ln)
	return nil
}

// Serve accepts connections from ln in the background
func (s *Server) Serve(ln net.Listener) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil {
			s.logger.Error("msg", "HTTP server failed",
				"component", "api",
				"error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("msg", "Stopping HTTP server", "component", "api")

	err := s.server.ShutdownWithContext(ctx)
	s.wg.Wait()

	s.logger.Info("msg", "HTTP server stopped",
		"component", "api",
		"total_requests", s.totalRequests.Load())
	return err
}

func (s *Server) requestHandler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	s.totalRequests.Add(1)

	path := string(ctx.Path())
	method := string(ctx.Method())

	rt, ok := s.routes[path]
	label := path
	switch {
	case !ok:
		label = "unmatched"
		writeErrorMessage(ctx, fasthttp.StatusNotFound, msgNotFound)
	case method != rt.method:
		ctx.Response.Header.Set(fasthttp.HeaderAllow, rt.method)
		writeErrorMessage(ctx, fasthttp.StatusMethodNotAllowed, msgMethodNotAllowed)
	default:
		if err := rt.gates.Run(ctx); err != nil {
			s.writeError(ctx, err)
			break
		}
		rt.handler(ctx)
	}

	status := ctx.Response.StatusCode()
	switch {
	case status >= 500:
		s.serverErrors.Add(1)
	case status >= 400:
		s.clientErrors.Add(1)
	}

	duration := time.Since(start)
	s.deps.Metrics.ObserveRequest(method, label, status, duration)
	s.logger.Debug("msg", "Request served",
		"component", "api",
		"method", method,
		"path", path,
		"status", status,
		"duration", duration,
		"remote_addr", ctx.RemoteAddr().String())
}

// writeError maps err onto the error taxonomy and logs it
func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	status, message := classify(err)
	if status >= 500 {
		s.logger.Error("msg", "Request failed",
			"component", "api",
			"path", string(ctx.Path()),
			"error", err)
	} else {
		s.logger.Warn("msg", "Request rejected",
			"component", "api",
			"path", string(ctx.Path()),
			"status", status,
			"error", err)
	}
	if status == fasthttp.StatusTooManyRequests {
		ctx.Response.Header.Set(fasthttp.HeaderRetryAfter, "60")
	}
	writeErrorMessage(ctx, status, message)
}

// Routes lists the served paths in sorted order
func (s *Server) Routes() []string {
	paths := make([]string, 0, len(s.routes))
	for p := range s.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *Server) GetStats() map[string]any {
	return map[string]any{
		"addr":           s.cfg.Addr(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"total_requests": s.totalRequests.Load(),
		"client_errors":  s.clientErrors.Load(),
		"server_errors":  s.serverErrors.Load(),
		"routes":         strings.Join(s.Routes(), ","),
	}
}
