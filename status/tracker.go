package status

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/burnedikt/diasend-nightscout-bridge/reconcile"
)

type Cycle struct {
	ID         string    `json:"id,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Watermark  time.Time `json:"watermark"`
	Entries    int       `json:"entries"`
	Treatments int       `json:"treatments"`
	Deletions  int       `json:"deletions"`
	Withheld   int       `json:"withheld"`
	Malformed  int       `json:"malformed"`
	Error      string    `json:"error,omitempty"`
}

type Status struct {
	Watermark   *time.Time `json:"watermark,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastCycle   *Cycle     `json:"lastCycle,omitempty"`
	Cycles      int        `json:"cycles"`
	Failures    int        `json:"failures"`
}

// Tracker records the outcome of reconciliation cycles. The service is ready after the first successful cycle.
type Tracker struct {
	healthCheck *HealthCheck
	now         func() time.Time

	mu     sync.RWMutex
	status Status
}

var _ reconcile.CycleObserver = &Tracker{}

func NewTracker(healthCheck *HealthCheck) *Tracker {
	return &Tracker{
		healthCheck: healthCheck,
		now:         time.Now,
	}
}

func (t *Tracker) ObserveCycle(result reconcile.CycleResult) {
	finishedAt := t.now().UTC()
	cycle := &Cycle{
		ID:         result.ID,
		FinishedAt: finishedAt,
		From:       result.From,
		To:         result.To,
		Watermark:  result.Watermark,
		Entries:    result.Entries,
		Treatments: result.Treatments,
		Deletions:  result.Deletions,
		Withheld:   result.Withheld,
		Malformed:  result.Malformed,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Cycles++
	t.status.LastCycle = cycle
	if result.Err != nil {
		cycle.Error = result.Err.Error()
		t.status.Failures++
		return
	}

	watermark := result.Watermark
	t.status.Watermark = &watermark
	t.status.LastSuccess = &finishedAt
	t.healthCheck.SetReady(true)
}

func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := t.status
	if status.LastCycle != nil {
		cycle := *status.LastCycle
		status.LastCycle = &cycle
	}
	return status
}

func (t *Tracker) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, t.Status())
}
