package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	docs "github.com/tazhibayda/townboat/docs"
	"github.com/tazhibayda/townboat/internal/chat"
	"github.com/tazhibayda/townboat/internal/config"
	"github.com/tazhibayda/townboat/internal/domain"
	httpapi "github.com/tazhibayda/townboat/internal/http"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
	"github.com/tazhibayda/townboat/internal/oauth"
	"github.com/tazhibayda/townboat/internal/queue"
	"github.com/tazhibayda/townboat/internal/repo"
)

// @title Townboat API
// @version 0.1.0
// @description Local community boards with live lists, toggles and ephemeral chat.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	lg, err := log.Init(cfg.Dev)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()

	metrics.MustRegister()
	domain.SetClubCap(cfg.ClubMemberCap)

	tracer.Start(tracer.WithService("townboat"))
	defer tracer.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(initCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		lg.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(initCtx); err != nil {
		lg.Fatal("ensure indexes", zap.Error(err))
	}

	rds := repo.NewRedis(cfg.RedisAddr)
	if err := rds.Ping(initCtx); err != nil {
		// single-instance mode: local fan-out, in-memory limits and timers
		lg.Warn("redis unavailable, running without it", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rds.Close()
		rds = nil
		store.Signal = repo.NewLocalSignal()
	} else {
		defer rds.Close()
		store.Signal = repo.NewRedisSignal(rds)
	}

	pub, err := queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		lg.Warn("rabbit unavailable, events are dropped", zap.Error(err))
		pub = queue.NewNoop()
	}
	defer pub.Close()

	g, gctx := errgroup.WithContext(ctx)

	var sched chat.Scheduler
	if cfg.ExpiryBackend == "redis" && rds != nil {
		rs := chat.NewRedisScheduler(rds.C, store)
		g.Go(func() error { return rs.Run(gctx, cfg.SweepInterval) })
		sched = rs
	} else {
		sched = chat.NewTimerScheduler(store)
	}
	defer sched.Close()

	docs.SwaggerInfo.BasePath = "/"

	h := httpapi.NewHandler(store, rds, pub, cfg.RabbitExchange, sched, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AccessTTL:       cfg.AccessTTL,
		RefreshDays:     cfg.RefreshTTLDays,
		RateLimitPerMin: cfg.RateLimitPerMin,
		UploadMaxBytes:  cfg.UploadMaxBytes,
		CompareAndSet:   cfg.CompareAndSet,
		ExpiryDelay:     cfg.ExpiryDelay,
		BookmarkTTL:     cfg.BookmarkTTL,
	})
	if cfg.GoogleClientID != "" {
		h.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.OAuthStateSecret)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		lg.Info("townboat listening", zap.String("addr", srv.Addr), zap.String("expiry", cfg.ExpiryBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("server stopped", zap.Error(err))
	}
}
