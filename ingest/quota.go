package ingest

import (
	"context"
	"fmt"
	"time"

	"encodingdb-backend/kvstore"
	"encodingdb-backend/models"
)

// QuotaError reports which window a credential exhausted and when retrying
// makes sense again.
type QuotaError struct {
	Window     string
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("per-%s quota exceeded", e.Window)
}

// QuotaTracker enforces per-credential request budgets over a minute window
// and a local-calendar-day window. Counter keys embed the window identity, so
// minute counters roll at minute boundaries and day counters at local
// midnight; the TTLs only garbage-collect stale windows.
type QuotaTracker struct {
	store         kvstore.Store
	defaultPerMin int
	defaultPerDay int
	now           func() time.Time
}

func NewQuotaTracker(store kvstore.Store, perMin, perDay int) *QuotaTracker {
	return &QuotaTracker{
		store:         store,
		defaultPerMin: perMin,
		defaultPerDay: perDay,
		now:           time.Now,
	}
}

// Allow consumes one request from both windows of the credential. It returns
// a *QuotaError when either budget is exhausted.
func (q *QuotaTracker) Allow(ctx context.Context, key *models.APIKey) error {
	now := q.now()

	perMin := q.defaultPerMin
	if key.RateLimitPerMin != nil {
		perMin = *key.RateLimitPerMin
	}
	perDay := q.defaultPerDay
	if key.RateLimitPerDay != nil {
		perDay = *key.RateLimitPerDay
	}

	minuteKey := fmt.Sprintf("quota:min:%s:%s", key.Id, now.Format("200601021504"))
	n, err := q.store.Incr(ctx, minuteKey, 2*time.Minute)
	if err != nil {
		return err
	}
	if perMin > 0 && n > int64(perMin) {
		secs := 60 - now.Second()
		return &QuotaError{Window: "minute", RetryAfter: time.Duration(secs) * time.Second}
	}

	dayKey := fmt.Sprintf("quota:day:%s:%s", key.Id, now.Format("20060102"))
	n, err = q.store.Incr(ctx, dayKey, 25*time.Hour)
	if err != nil {
		return err
	}
	if perDay > 0 && n > int64(perDay) {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		return &QuotaError{Window: "day", RetryAfter: midnight.Sub(now)}
	}
	return nil
}
