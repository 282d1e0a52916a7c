package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/config"
	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/metrics"
	"github.com/ykvlv/reminder-bot/internal/notify"
	"github.com/ykvlv/reminder-bot/internal/scheduler"
	"github.com/ykvlv/reminder-bot/internal/store"
	"github.com/ykvlv/reminder-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	client  *telegram.Client
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	sched   *scheduler.Scheduler
	httpSrv *http.Server
	repo    store.Repo
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	client, bot, err := telegram.NewClient(cfg.BotToken, cfg.SendRatePerSec, log)
	if err != nil {
		return nil, err
	}
	log.Info("authorized on telegram", zap.String("bot", bot.Self.UserName))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sched := NewScheduler(cfg, log, m)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newHTTPHandler(sched, reg),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, client: client, reg: reg, metrics: m, sched: sched, httpSrv: srv}, nil
}

// NewScheduler builds a scheduler configured from cfg. m may be nil.
func NewScheduler(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *scheduler.Scheduler {
	return scheduler.New(log,
		scheduler.WithLocation(cfg.Location()),
		scheduler.WithInterval(cfg.TickInterval),
		scheduler.WithFaultBackoff(cfg.FaultBackoff),
		scheduler.WithMetrics(m),
	)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder-bot",
		zap.String("db", a.cfg.DBDriver),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.Location().String()),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, a.cfg.DBDriver, a.cfg.DSN())
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("store ready", zap.String("driver", repo.Driver()))

	dispatcher := notify.NewDispatcher(repo, a.client, notify.Format(a.cfg.ParseMode), a.log, a.metrics)
	ctrl := conversation.New(repo, a.sched, dispatcher.Notify, a.client, a.log, a.metrics)

	// The schedule must be complete before the first tick.
	if _, err := a.sched.Restore(ctx, repo.GetAllEvents, dispatcher.Notify); err != nil {
		a.log.Error("restore schedule failed", zap.Error(err))
		_ = repo.Close()
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sched.Run(ctx)
	}()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	updCh := a.client.Updates(ctx, a.cfg.PollTimeout)
	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown(&wg)
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.shutdown(&wg)
				return nil
			}
			ctrl.Handle(ctx, conversation.Message{ChatID: upd.ChatID, ThreadID: upd.ThreadID, Text: upd.Text})
		}
	}
}

func (a *App) shutdown(wg *sync.WaitGroup) {
	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	wg.Wait()
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("close store failed", zap.Error(err))
		}
	}
}
