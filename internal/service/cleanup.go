package service

import (
	"bitwise74/auth-api/internal/store"
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const cleanupTimeout = 5 * time.Minute

type CleanupConfig struct {
	// Cron specs, "@every 1h" style descriptors work too. Empty disables the job.
	LedgerSchedule  string
	AccountSchedule string
}

// Janitor runs the periodic cleanup jobs
type Janitor struct {
	cron    *cron.Cron
	repo    store.Repository
	avatars *Avatars
	now     func() time.Time
}

func NewJanitor(repo store.Repository, avatars *Avatars, c CleanupConfig) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		repo:    repo,
		avatars: avatars,
		now:     time.Now,
	}

	if c.LedgerSchedule != "" {
		if _, err := j.cron.AddFunc(c.LedgerSchedule, j.runLedger); err != nil {
			return nil, fmt.Errorf("invalid ledger cleanup schedule, %w", err)
		}

		zap.L().Debug("Ledger cleanup attached", zap.String("schedule", c.LedgerSchedule))
	}

	if c.AccountSchedule != "" {
		if _, err := j.cron.AddFunc(c.AccountSchedule, j.runAccounts); err != nil {
			return nil, fmt.Errorf("invalid account cleanup schedule, %w", err)
		}

		zap.L().Debug("Account cleanup attached", zap.String("schedule", c.AccountSchedule))
	}

	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop waits for running jobs to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) runLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if _, err := LedgerCleanup(ctx, j.repo, j.now()); err != nil {
		zap.L().Error("Ledger cleanup failed", zap.Error(err))
	}
}

func (j *Janitor) runAccounts() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if _, err := AccountCleanup(ctx, j.repo, j.avatars, j.now()); err != nil {
		zap.L().Error("Account cleanup failed", zap.Error(err))
	}
}
