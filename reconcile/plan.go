package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

type Runnable interface {
	CanRun() bool
	DryRun(ctx context.Context) error
	Run(ctx context.Context) error
}

type GetRunner func(r Runnable) func(ctx context.Context) error

func Runner(r Runnable) func(ctx context.Context) error {
	return r.Run
}

func DryRunner(r Runnable) func(ctx context.Context) error {
	return r.DryRun
}

// Plan holds the side effects of one reconciliation cycle. It is computed from a single snapshot
// of the destination and applied with Run.
type Plan struct {
	From time.Time
	To   time.Time

	Entries    []nightscout.Entry
	Treatments []nightscout.Treatment
	// Persisted treatments made redundant by this cycle, e.g. carb corrections merged into a meal bolus.
	Deletions []nightscout.Treatment
	// Meal boli waiting for their carbs. They are derived again from the source in one of the next cycles.
	Withheld  []nightscout.MealBolus
	Malformed int

	// Watermark to use for the next cycle once the plan has been applied.
	Watermark time.Time

	destination nightscout.Client
	logger      *zap.SugaredLogger
}

func (p *Plan) DryRun(ctx context.Context) error {
	return p.doRun(ctx, DryRunner)
}

func (p *Plan) Run(ctx context.Context) error {
	return p.doRun(ctx, Runner)
}

// doRun creates entries and treatments concurrently and deletes redundant treatments once all of
// them were created. Started requests are not cancelled when ctx is done.
func (p *Plan) doRun(ctx context.Context, getRunner GetRunner) error {
	detached := context.WithoutCancel(ctx)

	var group errgroup.Group
	for _, t := range p.publishTasks() {
		if !t.CanRun() {
			continue
		}
		run := getRunner(t)
		group.Go(func() error {
			return run(detached)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, t := range p.deletionTasks() {
		if !t.CanRun() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := getRunner(t)(detached); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) publishTasks() []Runnable {
	return []Runnable{
		&createEntriesTask{entries: p.Entries, destination: p.destination, logger: p.logger},
		&createTreatmentsTask{treatments: p.Treatments, destination: p.destination, logger: p.logger},
	}
}

func (p *Plan) deletionTasks() []Runnable {
	tasks := make([]Runnable, 0, len(p.Deletions))
	for _, t := range p.Deletions {
		tasks = append(tasks, &deleteTreatmentTask{treatment: t, destination: p.destination, logger: p.logger})
	}
	return tasks
}

func (p *Plan) IsEmpty() bool {
	return len(p.Entries) == 0 && len(p.Treatments) == 0 && len(p.Deletions) == 0
}

type createEntriesTask struct {
	entries     []nightscout.Entry
	destination nightscout.Client
	logger      *zap.SugaredLogger
}

func (c *createEntriesTask) CanRun() bool {
	return len(c.entries) > 0
}

func (c *createEntriesTask) DryRun(ctx context.Context) error {
	for _, e := range c.entries {
		c.logger.Infow("would create entry", "type", e.EntryType(), "date", nightscout.FormatTime(e.Time()), "device", e.BaseEntry().Device)
	}
	return nil
}

func (c *createEntriesTask) Run(ctx context.Context) error {
	if _, err := c.destination.CreateEntries(ctx, c.entries); err != nil {
		return collaboratorError("create entries", time.Time{}, time.Time{}, err)
	}
	c.logger.Infow("created entries", "count", len(c.entries))
	return nil
}

type createTreatmentsTask struct {
	treatments  []nightscout.Treatment
	destination nightscout.Client
	logger      *zap.SugaredLogger
}

func (c *createTreatmentsTask) CanRun() bool {
	return len(c.treatments) > 0
}

func (c *createTreatmentsTask) DryRun(ctx context.Context) error {
	for _, t := range c.treatments {
		c.logger.Infow("would create treatment", "eventType", t.EventType(), "reference", nightscout.Reference(t))
	}
	return nil
}

func (c *createTreatmentsTask) Run(ctx context.Context) error {
	if _, err := c.destination.CreateTreatments(ctx, c.treatments); err != nil {
		return collaboratorError("create treatments", time.Time{}, time.Time{}, err)
	}
	c.logger.Infow("created treatments", "count", len(c.treatments))
	return nil
}

type deleteTreatmentTask struct {
	treatment   nightscout.Treatment
	destination nightscout.Client
	logger      *zap.SugaredLogger
}

// CanRun is false for treatments that were never persisted.
func (d *deleteTreatmentTask) CanRun() bool {
	return d.treatment.TreatmentBase().ID != ""
}

func (d *deleteTreatmentTask) DryRun(ctx context.Context) error {
	d.logger.Infow("would delete treatment", "id", d.treatment.TreatmentBase().ID, "eventType", d.treatment.EventType(), "reference", nightscout.Reference(d.treatment))
	return nil
}

func (d *deleteTreatmentTask) Run(ctx context.Context) error {
	id := d.treatment.TreatmentBase().ID
	if err := d.destination.DeleteTreatments(ctx, nightscout.Filter{ID: id}); err != nil {
		return collaboratorError("delete treatment "+id, time.Time{}, time.Time{}, err)
	}
	d.logger.Infow("deleted treatment", "id", id, "eventType", d.treatment.EventType(), "reference", nightscout.Reference(d.treatment))
	return nil
}
