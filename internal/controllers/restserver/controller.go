// Package restserver serves the latest pipeline result over HTTP and exposes
// the gRPC health service on the same port.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"github.com/dockstats/dockstats/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/soheilhy/cmux"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name that reports whether a result
// has been loaded.
const ServiceName = "dockstats"

// Controller represents the REST server controller
type Controller struct {
	restConfig config.RESTServerData
	Server     http.Server
	GRPCServer *grpc.Server
	health     *health.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers

	current atomic.Pointer[published]
}

// published is a result together with the station metadata known when it
// was computed.
type published struct {
	result   *types.Result
	stations map[string]types.Station
}

// NewController creates a new REST server controller. It serves 503 until
// the first result is published with SetResult.
func NewController(rc config.RESTServerData, logger *zap.SugaredLogger) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctrl := &Controller{
		restConfig: rc,
		logger:     logger,
		health:     health.NewServer(),
	}

	// Not serving until a result arrives
	ctrl.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	ctrl.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	ctrl.GRPCServer = grpc.NewServer()
	healthpb.RegisterHealthServer(ctrl.GRPCServer, ctrl.health)
	reflection.Register(ctrl.GRPCServer)

	ctrl.handlers = NewHandlers(ctrl)
	ctrl.Server.Addr = rc.Addr()
	ctrl.Server.Handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger.Desugar())),
	)(handlers.CompressHandler(ctrl.setupRouter()))
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl
}

// SetResult publishes a new pipeline result together with the station
// metadata known at the time of the run.
func (c *Controller) SetResult(res *types.Result, stations []types.Station) {
	meta := make(map[string]types.Station, len(stations))
	for _, s := range stations {
		meta[s.ID] = s
	}
	c.current.Store(&published{result: res, stations: meta})

	c.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	c.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	c.logger.Infow("published result", "run_id", res.RunID, "stations", len(res.Stations))
}

// SetStorageHealth records the health of a storage backend as its own gRPC
// health service, "storage/<name>". It matches storage.HealthReporter.
func (c *Controller) SetStorageHealth(name string, err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.health.SetServingStatus("storage/"+name, status)
}

// Handler returns the HTTP handler of the REST API.
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the REST and gRPC servers on the configured
// address. Both shut down when ctx is cancelled.
func (c *Controller) StartController(ctx context.Context, wg *sync.WaitGroup) error {
	l, err := net.Listen("tcp", c.Server.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", c.Server.Addr, err)
	}
	return c.Serve(ctx, wg, l)
}

// Serve splits l between gRPC and HTTP traffic and serves both.
func (c *Controller) Serve(ctx context.Context, wg *sync.WaitGroup, l net.Listener) error {
	c.logger.Infof("starting REST server on %s", l.Addr())

	m := cmux.New(l)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := c.GRPCServer.Serve(grpcL); err != nil && !errors.Is(err, cmux.ErrListenerClosed) && !errors.Is(err, grpc.ErrServerStopped) {
			c.logger.Errorf("gRPC server error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := c.Server.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := m.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.logger.Debugf("connection multiplexer stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		c.logger.Info("shutting down the REST server...")
		c.health.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(sctx)
		c.GRPCServer.Stop()
		m.Close()
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.resultMiddleware)

	api.HandleFunc("/run", c.handlers.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/stations", c.handlers.GetStations).Methods(http.MethodGet)
	api.HandleFunc("/stations/{station}/hourly", c.handlers.GetHourly).Methods(http.MethodGet)
	api.HandleFunc("/stations/{station}/weekday", c.handlers.GetWeekday).Methods(http.MethodGet)
	api.HandleFunc("/stations/{station}/changes", c.handlers.GetChanges).Methods(http.MethodGet)
	api.HandleFunc("/rankings", c.handlers.GetRankings).Methods(http.MethodGet)

	return router
}

type resultContextKey struct{}

// resultMiddleware pins the current result for the lifetime of a request so
// a concurrent refresh cannot change it halfway through.
func (c *Controller) resultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := c.current.Load()
		if p == nil {
			c.handlers.formatter.WriteError(w, r, http.StatusServiceUnavailable, "no result available yet")
			return
		}
		ctx := context.WithValue(r.Context(), resultContextKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func publishedFromContext(r *http.Request) *published {
	p, _ := r.Context().Value(resultContextKey{}).(*published)
	return p
}
