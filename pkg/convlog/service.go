package convlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/feastline/supportbot/pkg/logger"
)

const (
	queueCapacity  = 256
	publishTimeout = 100 * time.Millisecond
	insertTimeout  = 5 * time.Second
)

// Service wraps the store with an asynchronous writer so resolutions
// never wait on disk, plus a cron-scheduled retention sweep.
type Service struct {
	store           *Store
	queue           chan Record
	retentionDays   int
	cleanupSchedule string
	cron            *gronx.Gronx
	cancel          context.CancelFunc
	dropped         atomic.Uint64
	wg              sync.WaitGroup
	started         atomic.Bool
}

func NewService(store *Store, retentionDays int, cleanupSchedule string) *Service {
	return &Service{
		store:           store,
		queue:           make(chan Record, queueCapacity),
		retentionDays:   retentionDays,
		cleanupSchedule: cleanupSchedule,
		cron:            gronx.New(),
	}
}

// Start launches the writer and janitor goroutines. They run until
// ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.writeLoop(ctx)

	if s.retentionDays > 0 && s.cleanupSchedule != "" {
		s.wg.Add(1)
		go s.cleanupLoop(ctx)
	}
}

// Stop shuts the background goroutines down and waits for queued
// records to drain. Safe to call regardless of whether the Start
// context was already cancelled.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Record queues one record for durable storage without blocking the
// caller beyond a short overflow grace period. Missing id/timestamp
// are filled in here.
func (s *Service) Record(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	select {
	case s.queue <- rec:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case s.queue <- rec:
		case <-timer.C:
			s.dropped.Add(1)
			logger.WarnCF("convlog", "Dropped conversation record, queue full", map[string]any{
				"session_id": rec.SessionID,
			})
		}
	}
}

// Dropped reports how many records were discarded because the queue
// stayed full.
func (s *Service) Dropped() uint64 {
	return s.dropped.Load()
}

// History proxies the store for read-side callers.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	return s.store.History(ctx, sessionID, limit)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) writeLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case rec := <-s.queue:
			s.insert(rec)
		case <-ctx.Done():
			// Drain whatever is already queued before exiting.
			for {
				select {
				case rec := <-s.queue:
					s.insert(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) insert(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := s.store.Insert(ctx, rec); err != nil {
		logger.ErrorCF("convlog", "Failed to persist conversation record", map[string]any{
			"session_id": rec.SessionID,
			"error":      err.Error(),
		})
	}
}

func (s *Service) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := s.cron.IsDue(s.cleanupSchedule, now)
			if err != nil {
				logger.WarnCF("convlog", "Invalid cleanup schedule", map[string]any{
					"schedule": s.cleanupSchedule,
					"error":    err.Error(),
				})
				return
			}
			if !due {
				continue
			}
			s.cleanup(now)
		}
	}
}

func (s *Service) cleanup(now time.Time) {
	cutoff := now.AddDate(0, 0, -s.retentionDays)
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.ErrorCF("convlog", "Retention cleanup failed", map[string]any{"error": err.Error()})
		return
	}
	if removed > 0 {
		logger.InfoCF("convlog", "Retention cleanup removed old records", map[string]any{
			"removed":        removed,
			"retention_days": s.retentionDays,
		})
	}
}
