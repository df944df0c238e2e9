package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/guest-registry/internal/allocator"
	"github.com/diagnosis/guest-registry/internal/bridge"
	"github.com/diagnosis/guest-registry/internal/http/handlers/registry"
	"github.com/diagnosis/guest-registry/internal/repo"
	boltrepo "github.com/diagnosis/guest-registry/internal/repo/bolt"
	"github.com/diagnosis/guest-registry/internal/repo/memory"
	"github.com/diagnosis/guest-registry/internal/repo/postgres"
	redisrepo "github.com/diagnosis/guest-registry/internal/repo/redis"
	"github.com/diagnosis/guest-registry/internal/rpcclient"
	"github.com/diagnosis/guest-registry/internal/service"
	"github.com/diagnosis/guest-registry/pkg/config"
	"github.com/diagnosis/guest-registry/pkg/database"
	"github.com/diagnosis/guest-registry/pkg/events"
	"github.com/diagnosis/guest-registry/pkg/logger"
	mw "github.com/diagnosis/guest-registry/pkg/middleware"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Registry service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to guest store
	guests, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	// Connect to redis (optional)
	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
	}

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	alloc, err := newAllocator(ctx, cfg.Rooms, guests, rdb)
	if err != nil {
		return err
	}

	svc := service.NewRegistryService(guests, alloc, eventBus, service.Options{
		MaxAttempts: cfg.Rooms.MaxAttempts,
		Subject:     cfg.NATS.GuestEventsSubject,
	})

	var idempotency func(http.Handler) http.Handler
	if rdb != nil {
		idempotency = mw.IdempotencyMiddleware(redisrepo.NewIdempotencyStore(rdb), 24*time.Hour)
	}
	h := registry.NewHandler(svc, idempotency)

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("registry"))
	r.Use(mw.Logging)
	r.Use(mw.CORS([]string{"*"}))
	r.Use(mw.Health)
	r.Use(mw.Ready(guests))
	r.Mount("/rpc", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Bind before the bridge subscribes: the bridge calls this listener.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting registry service", "addr", ln.Addr().String(), "store", cfg.Store.Driver, "room_strategy", cfg.Rooms.Strategy)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var b *bridge.Bridge
	if cfg.Bridge.Enabled {
		// The bridge talks to this process through the same RPC surface as any
		// other caller.
		client := rpcclient.New(cfg.Bridge.RegistryURL, cfg.Bridge.RPCTimeout)
		b = bridge.New(eventBus, client, bridge.Options{
			Subject:     cfg.NATS.GuestEventsSubject,
			QueueGroup:  cfg.NATS.QueueGroup,
			RPCTimeout:  cfg.Bridge.RPCTimeout,
			MaxInFlight: int64(cfg.Bridge.MaxInFlight),
		})
		if err := b.Start(gctx); err != nil {
			srv.Close()
			g.Wait()
			return err
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down registry service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if b != nil {
			if err := b.Wait(shutdownCtx); err != nil {
				logger.Warn("Bridge dispatches still in flight at shutdown", "error", err)
			}
			logger.Info("Bridge stopped", "stats", b.Stats())
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (repo.GuestRepository, io.Closer, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return postgres.NewGuestRepository(pool), closerFunc(pool.Close), nil
	case "bolt":
		db, err := boltrepo.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		guests, err := boltrepo.NewGuestRepository(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return guests, db, nil
	case "memory":
		logger.Warn("Using in-memory guest store, data is lost on restart")
		return memory.NewGuestRepository(), closerFunc(func() {}), nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}

func newAllocator(ctx context.Context, cfg config.RoomsConfig, guests repo.GuestRepository, rdb *goredis.Client) (allocator.Allocator, error) {
	rng := allocator.Range{First: cfg.First, Last: cfg.Last}

	switch cfg.Strategy {
	case "occupancy":
		return allocator.NewOccupancy(guests, rng)
	case "sequence":
		// Resume above the guests already stored so a restart or a fresh
		// counter key does not walk back into occupied rooms.
		issued, err := allocator.Issued(ctx, guests, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to resume room sequence: %w", err)
		}

		var counter allocator.Counter
		switch {
		case cfg.Counter == "redis" && rdb != nil:
			rc := redisrepo.NewCounter(rdb, cfg.CounterKey)
			if err := rc.Seed(ctx, issued); err != nil {
				return nil, fmt.Errorf("failed to seed room counter: %w", err)
			}
			counter = rc
		case cfg.Counter == "redis":
			logger.Warn("REDIS_URL not set, room counter is local to this process", "resume_after", issued)
			counter = allocator.NewMemoryCounterFrom(issued)
		default:
			counter = allocator.NewMemoryCounterFrom(issued)
		}
		return allocator.NewSequence(counter, rng)
	default:
		return nil, fmt.Errorf("unknown ROOM_STRATEGY %q", cfg.Strategy)
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
