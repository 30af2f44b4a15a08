package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/opendesk/helpdesk-service/internal/config"
	"github.com/opendesk/helpdesk-service/internal/repository"
)

// ReminderWorker periodically surfaces tickets that have stayed open past the
// configured age so operators notice stalled work.
type ReminderWorker struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
	cfg     config.ReminderConfig
	cron    *cron.Cron
}

// NewReminderWorker builds the worker.
func NewReminderWorker(tickets repository.TicketRepository, logger *zap.Logger, cfg config.ReminderConfig) *ReminderWorker {
	return &ReminderWorker{tickets: tickets, logger: logger, cfg: cfg}
}

// Start schedules the reminder job. No-op when disabled.
func (w *ReminderWorker) Start() error {
	if !w.cfg.Enabled {
		return nil
	}

	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.cfg.CronSpec, w.run); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("reminder worker started", zap.String("spec", w.cfg.CronSpec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (w *ReminderWorker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

func (w *ReminderWorker) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(w.cfg.OpenAgeHours) * time.Hour)
	stale, err := w.tickets.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error("stale ticket scan failed", zap.Error(err))
		return
	}

	for _, ticket := range stale {
		w.logger.Warn("ticket open past reminder age",
			zap.String("ticket_id", ticket.ID),
			zap.String("tech_id", ticket.TechID),
			zap.Time("created_at", ticket.CreatedAt))
	}
	if len(stale) == 0 {
		w.logger.Debug("no stale open tickets")
	}
}
