package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/config"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/notify"
	"github.com/tazhibayda/townboat/internal/queue"
	"github.com/tazhibayda/townboat/internal/repo"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		panic(err)
	}
	lg, err := log.Init(cfg.Dev)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := repo.NewStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		lg.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey)
	if err != nil {
		lg.Fatal("rabbit consumer init", zap.Error(err))
	}
	defer cons.Close()

	lg.Info("notifier up",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
		zap.String("key", cfg.BindKey),
		zap.Int("workers", cfg.Concurrency))

	if err := cons.Consume(ctx, cfg.Concurrency, notify.New(store).Handle); err != nil {
		lg.Fatal("consumer stopped", zap.Error(err))
	}
}
