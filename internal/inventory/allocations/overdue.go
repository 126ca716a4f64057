package allocations

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueScanner periodically flags active allocations whose expected return
// date has passed.
type OverdueScanner struct {
	service  *AllocationService
	interval time.Duration
	log      *zap.Logger
}

func NewOverdueScanner(service *AllocationService, interval time.Duration, log *zap.Logger) *OverdueScanner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueScanner{
		service:  service,
		interval: interval,
		log:      log,
	}
}

// Start runs the scan loop until ctx is cancelled. One scan fires immediately
// so a restarted server does not wait a full interval to catch up.
func (s *OverdueScanner) Start(ctx context.Context) {
	go func() {
		s.scan()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.scan()
			}
		}
	}()
}

func (s *OverdueScanner) scan() {
	flagged, err := s.service.MarkOverdue()
	if err != nil {
		s.log.Error("overdue scan failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		s.log.Info("flagged overdue allocations", zap.Int64("count", flagged))
	}
}
