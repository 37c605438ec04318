package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/you/nosmoke/internal/notifier"
	"github.com/you/nosmoke/internal/worker"
	"github.com/you/nosmoke/pkg/config"
	"github.com/you/nosmoke/pkg/logger"
	"github.com/you/nosmoke/pkg/mq"
)

func main() {
	cfg, err := config.LoadNotify()
	if err != nil {
		log.Fatal("config", "err", err)
	}
	lg := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile, Prefix: "notify"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcfg := mq.ConsumerConfig{
		Exchanges: cfg.Exchanges,
		Queue:     cfg.Queue,
		Bindings:  cfg.Bindings,
		Prefetch:  cfg.Prefetch,
		DLXName:   cfg.DLXName,
		DLXQueue:  cfg.DLXQueue,
		Tag:       "notification-worker",
	}

	var cons *mq.Consumer
	for {
		cons, err = mq.NewConsumer(cfg.RabbitURL, mcfg)
		if err == nil {
			break
		}
		lg.Warn("connect failed; retry in 2s", "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
	defer cons.Close()

	lg.Info("started", "queue", cfg.Queue, "exchanges", cfg.Exchanges, "bindings", cfg.Bindings)
	w := worker.NewConsumer(cons, notifier.NewConsole(lg.WithPrefix("console")), lg)
	if err := w.Run(ctx); err != nil {
		lg.Error("run", "err", err)
	}
	lg.Info("stopped")
}
