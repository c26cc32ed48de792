// Package server wires the application together and runs it: HTTP API,
// optional gRPC health, queue workers and the scheduler, with graceful
// shutdown when the context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/jobs"
	"github.com/multidelivery/painel/app/listeners"
	"github.com/multidelivery/painel/app/routes"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/internal/kernel"
	"github.com/multidelivery/painel/pkg/broker"
	"github.com/multidelivery/painel/pkg/cache"
	"github.com/multidelivery/painel/pkg/database"
	"github.com/multidelivery/painel/pkg/event"
	grpcserver "github.com/multidelivery/painel/pkg/grpc"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
	"github.com/multidelivery/painel/pkg/queue"
	"github.com/multidelivery/painel/pkg/router"
	"github.com/multidelivery/painel/pkg/schedule"
	"github.com/multidelivery/painel/pkg/sse"
	"github.com/multidelivery/painel/pkg/storage"
	"github.com/multidelivery/painel/pkg/workerpool"
	"github.com/multidelivery/painel/pkg/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	eventWorkers    = 8
	sseBuffer       = 64
	retryBatch      = 100
)

var enableMongoLog = logger.EnableMongo

// App holds every long-lived component.
type App struct {
	DB        *gorm.DB
	Cache     cache.Store
	Publisher broker.Publisher
	Queue     *queue.Manager
	Events    *event.Dispatcher
	SSE       *sse.Broker
	Hub       *ws.Hub

	Auth    *services.AuthService
	Pedidos *services.PedidoService
	Catalog *services.CatalogService

	pool    *workerpool.Pool
	closers []func()
}

// Boot loads configuration and connects every backing service. Close
// releases what Boot opened, also after a partial failure.
func Boot() (*App, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	a := &App{}
	if uri := config.Get("LOG_MONGO_URI", ""); uri != "" {
		closeLog, err := enableMongoLog(uri,
			config.Get("LOG_MONGO_DB", "painel"),
			config.Get("LOG_MONGO_COLLECTION", "logs"))
		if err != nil {
			logger.Warn("server: mongo log sink disabled", "error", err)
		} else {
			a.closers = append(a.closers, closeLog)
		}
	}

	if err := database.Connect(); err != nil {
		a.Close()
		return nil, err
	}
	a.DB = database.DB
	a.closers = append(a.closers, func() { _ = database.Close() })

	store, err := cache.Open(config.CacheDriver())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = store

	storage.Connect()

	pub, err := broker.Open(config.AMQPURL(), config.AMQPExchange())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Publisher = pub
	a.closers = append(a.closers, func() { _ = pub.Close() })

	if err := a.bootQueue(); err != nil {
		a.Close()
		return nil, err
	}

	a.pool = workerpool.New(eventWorkers)
	a.Events = event.New()
	a.Events.UsePool(a.pool)

	a.SSE = sse.NewBroker(sseBuffer)
	a.Hub = ws.NewHub(ws.AllowOrigins(config.CORSOrigins()))

	a.Auth = services.NewAuthService(a.DB)
	a.Pedidos = services.NewPedidoService(a.DB, a.Cache, a.Events)
	a.Catalog = services.NewCatalogService(a.DB)

	listeners.Register(a.Events, listeners.Deps{
		SSE:       a.SSE,
		Hub:       a.Hub,
		Resumo:    a.Pedidos,
		Queue:     a.Queue,
		Publisher: a.Publisher,
	})
	return a, nil
}

func (a *App) bootQueue() error {
	var driver queue.Driver
	switch config.QueueDriver() {
	case "redis":
		rdb, err := cache.Connect()
		if err != nil {
			return err
		}
		rd := queue.NewRedisDriver(rdb)
		a.closers = append(a.closers, func() {
			rd.Close()
			_ = rdb.Close()
		})
		driver = rd
	case "", "memory":
		driver = queue.NewMemoryDriver()
	default:
		return fmt.Errorf("server: unsupported QUEUE_DRIVER %q (supported: memory, redis)", config.QueueDriver())
	}

	a.Queue = queue.NewManager(driver)
	a.Queue.UseDB(a.DB)
	jobs.Register(a.Queue, a.Publisher)
	return nil
}

// Routes registers the API on r.
func (a *App) Routes(r *router.Router) {
	routes.RegisterAPI(r, routes.Deps{
		Auth:    a.Auth,
		Pedidos: a.Pedidos,
		Catalog: a.Catalog,
		SSE:     a.SSE,
		Hub:     a.Hub,
		Ping:    database.Ping,
	})
}

// Scheduler returns the periodic maintenance tasks.
func (a *App) Scheduler() (*schedule.Scheduler, error) {
	s := schedule.New()

	err := s.Cron("0 * * * *").Name("sessions:prune").WithoutOverlapping().Run(func(ctx context.Context) {
		n, err := a.Auth.PruneSessions(ctx)
		if err != nil {
			logger.Error("schedule: prune sessions", "error", err)
			return
		}
		logger.Info("schedule: sessions pruned", "count", n)
	})
	if err != nil {
		return nil, err
	}

	err = s.Every(15).Minutes().Name("queue:retry-failed").WithoutOverlapping().Run(func(ctx context.Context) {
		if _, err := a.Queue.RetryFailed(ctx, retryBatch); err != nil {
			logger.Error("schedule: retry failed jobs", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	err = s.EveryMinute().Name("pedidos:pending-gauge").WithoutOverlapping().Run(func(ctx context.Context) {
		n, err := a.Pedidos.PendingCount(ctx)
		if err != nil {
			logger.Error("schedule: count pending", "error", err)
			return
		}
		metrics.PedidosPending.Set(float64(n))
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Serve runs the HTTP server, the gRPC health server when GRPC_PORT is set,
// the queue workers and the scheduler until ctx is cancelled or one of them
// fails.
func (a *App) Serve(ctx context.Context) error {
	sched, err := a.Scheduler()
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           kernel.NewHTTPKernel(a.Routes).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var grpcSrv *grpcserver.Server
	var grpcLis net.Listener
	if port := config.GRPCPort(); port != "" {
		grpcLis, err = net.Listen("tcp", ":"+port)
		if err != nil {
			return fmt.Errorf("server: grpc listen: %w", err)
		}
		grpcSrv = grpcserver.New(database.Ping)
	}

	g, gctx := errgroup.WithContext(ctx)
	// Long-lived SSE requests end with the server instead of holding
	// Shutdown until its deadline.
	httpSrv.BaseContext = func(net.Listener) context.Context { return gctx }

	go a.Hub.Run(gctx)
	a.Queue.Start(gctx, config.QueueWorkers())
	sched.Start(gctx)

	g.Go(func() error {
		logger.Info("server: http listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: http: %w", err)
		}
		return nil
	})
	if grpcSrv != nil {
		g.Go(func() error {
			return grpcSrv.Serve(gctx, grpcLis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server: shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(sctx)
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		return err
	})

	err = g.Wait()
	a.Queue.Wait()
	sched.Wait()
	return err
}

// Close detaches the listeners, drains the event pool and releases
// connections in reverse order.
func (a *App) Close() {
	if a.pool != nil {
		a.Events.Flush()
		a.pool.Shutdown()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
