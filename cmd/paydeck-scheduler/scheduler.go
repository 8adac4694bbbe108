// Package main provides the Paydeck payroll scheduler.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires payroll runs against the API on a cron schedule. Runs that
// park for review or fail are left to operators; the scheduler only
// triggers.
type Scheduler struct {
	apiURL   string
	cronExpr string
	client   *http.Client
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewScheduler(apiURL, cronExpr string, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	return &Scheduler{
		apiURL:   apiURL,
		cronExpr: cronExpr,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logger.With("module", "payroll_scheduler", "cron", cronExpr),
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting payroll scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.cronExpr, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.InfoContext(ctx, "Added cron job", "id", id)
	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// run triggers one payroll run and logs the outcome.
func (s *Scheduler) run(ctx context.Context) {
	body, err := json.Marshal(map[string]string{
		"requested_by": "paydeck-scheduler",
		"priority":     "normal",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode run request", "error", err)

		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/payroll", bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build run request", "error", err)

		return
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Payroll run request failed", "error", err)

		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusAccepted:
		s.logger.InfoContext(ctx, "Payroll run parked for review", "response", string(payload))
	case resp.StatusCode >= 400:
		s.logger.ErrorContext(ctx, "Payroll run rejected", "status", resp.StatusCode, "response", string(payload))
	default:
		s.logger.InfoContext(ctx, "Payroll run triggered", "status", resp.StatusCode, "response", string(payload))
	}
}
