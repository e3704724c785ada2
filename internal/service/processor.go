package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type Processor interface {
	Start(ctx context.Context) error
	Stop() error
	// RunOnce performs a single pass and reports how many items it handled.
	RunOnce(ctx context.Context) (int, error)
	GetStatus() ProcessorStatus
}

type ProcessorStatus struct {
	Name           string    `json:"name"`
	IsRunning      bool      `json:"is_running"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	LastProcessed  time.Time `json:"last_processed,omitempty"`
	TotalProcessed int64     `json:"total_processed"`
	ErrorCount     int64     `json:"error_count"`
}

type ProcessorConfig struct {
	Name                  string
	Interval              time.Duration // How often to run a pass
	RetryAttempts         int           // Retry attempts for failed items
	RetryDelay            time.Duration // Delay between retries
	ShutdownTimeout       time.Duration // Max time to wait for graceful shutdown
	MaxProcessingDuration time.Duration // Passes slower than this are logged
}

type periodicProcessor struct {
	run    func(ctx context.Context) (int, error)
	logger logger.Logger
	config ProcessorConfig

	// State management
	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	stopCh    chan struct{}
	ticker    *time.Ticker
	wg        sync.WaitGroup

	// Metrics
	lastProcessed  time.Time
	totalProcessed int64
	errorCount     int64
}

func newPeriodicProcessor(cfg ProcessorConfig, l logger.Logger) *periodicProcessor {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.MaxProcessingDuration == 0 {
		cfg.MaxProcessingDuration = cfg.Interval
	}
	return &periodicProcessor{
		logger: l,
		config: cfg,
	}
}

// NewExpiryDispatcher delivers due offer expiry jobs to ExpireOffer. A job is
// acked only after its handler succeeded; otherwise its lease runs out and
// it is delivered again.
func NewExpiryDispatcher(svc ReservationService, jobs repo.JobRepository, clk clock.Clock, cfg config.SchedulerConfig, l logger.Logger) Processor {
	p := newPeriodicProcessor(ProcessorConfig{
		Name:            "offer_expiry_dispatcher",
		Interval:        cfg.PollInterval,
		RetryAttempts:   cfg.RetryAttempts,
		RetryDelay:      cfg.RetryDelay,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, l)

	p.run = func(ctx context.Context) (int, error) {
		due, err := jobs.ClaimDue(ctx, OfferExpiryQueue, clk.Now(), cfg.BatchSize, cfg.Lease)
		if err != nil {
			return 0, fmt.Errorf("failed to claim due jobs: %w", err)
		}

		handled := 0
		for _, job := range due {
			err := p.withRetry(ctx, func() error {
				_, err := svc.ExpireOffer(ctx, job.ID)
				return err
			})
			if err != nil {
				p.incrementErrorCount()
				p.logger.Errorf(ctx, "Failed to expire offer %s: %v", job.ID, err)
				continue
			}

			if err := jobs.Ack(ctx, job); err != nil {
				p.incrementErrorCount()
				p.logger.Warnf(ctx, "Failed to ack expiry job %s: %v", job.ID, err)
				continue
			}
			handled++
		}

		return handled, nil
	}

	return p
}

// NewReconciler periodically sweeps expired offers and promotes waiting
// entries, covering for any expiry job that was lost.
func NewReconciler(svc ReservationService, cfg config.SchedulerConfig, batchSize int, l logger.Logger) Processor {
	p := newPeriodicProcessor(ProcessorConfig{
		Name:            "reservation_reconciler",
		Interval:        cfg.SweepInterval,
		RetryAttempts:   cfg.RetryAttempts,
		RetryDelay:      cfg.RetryDelay,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, l)

	p.run = func(ctx context.Context) (int, error) {
		cleaned, err := svc.CleanupExpiredReservations(ctx)
		if err != nil {
			return 0, err
		}

		processed, err := svc.ProcessWaitlist(ctx, batchSize)
		if err != nil {
			return cleaned.Expired, err
		}

		return cleaned.Expired + processed.Promoted, nil
	}

	return p
}

func (p *periodicProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("%s is already running", p.config.Name)
	}

	p.logger.Infof(ctx, "Starting %s - interval: %s", p.config.Name, p.config.Interval)

	p.isRunning = true
	p.startedAt = time.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.config.Interval)

	p.wg.Add(1)
	go p.processLoop(ctx, p.stopCh, p.ticker)

	return nil
}

// Stop signals the loop and waits for the pass in flight. p.mu is released
// while waiting since RunOnce takes it to record its result.
func (p *periodicProcessor) Stop() error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return errors.New(p.config.Name + " is not running")
	}
	if p.stopCh == nil {
		p.mu.Unlock()
		return errors.New(p.config.Name + " is already stopping")
	}

	p.logger.Infof(context.Background(), "Stopping %s...", p.config.Name)

	close(p.stopCh)
	p.stopCh = nil
	p.ticker.Stop()
	p.mu.Unlock()

	// Wait for graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Infof(context.Background(), "%s stopped gracefully", p.config.Name)
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warnf(context.Background(), "%s shutdown timeout exceeded", p.config.Name)
	}

	p.mu.Lock()
	p.isRunning = false
	p.mu.Unlock()
	return nil
}

func (p *periodicProcessor) processLoop(ctx context.Context, stopCh <-chan struct{}, ticker *time.Ticker) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infof(ctx, "%s stopped due to context cancellation", p.config.Name)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Errorf(ctx, "%s pass failed: %v", p.config.Name, err)
			}
		}
	}
}

func (p *periodicProcessor) RunOnce(ctx context.Context) (int, error) {
	startTime := time.Now()

	n, err := p.run(ctx)

	p.mu.Lock()
	p.lastProcessed = time.Now()
	p.totalProcessed += int64(n)
	if err != nil {
		p.errorCount++
	}
	p.mu.Unlock()

	if duration := time.Since(startTime); duration > p.config.MaxProcessingDuration {
		p.logger.Warnf(ctx, "%s pass took %s, longer than %s", p.config.Name, duration, p.config.MaxProcessingDuration)
	}
	if n > 0 {
		p.logger.Debugf(ctx, "%s handled %d items", p.config.Name, n)
	}

	return n, err
}

func (p *periodicProcessor) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := operation(); err != nil {
			lastErr = err
			p.logger.Warnf(ctx, "Operation failed (attempt %d/%d): %v", attempt+1, p.config.RetryAttempts, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("operation failed after %d attempts: %w", p.config.RetryAttempts, lastErr)
}

func (p *periodicProcessor) incrementErrorCount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorCount++
}

func (p *periodicProcessor) GetStatus() ProcessorStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProcessorStatus{
		Name:           p.config.Name,
		IsRunning:      p.isRunning,
		StartedAt:      p.startedAt,
		LastProcessed:  p.lastProcessed,
		TotalProcessed: p.totalProcessed,
		ErrorCount:     p.errorCount,
	}
}
