package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

// Reconciler derives treatments and entries from the source and publishes the ones missing at the destination.
type Reconciler struct {
	source      diasend.Source
	destination nightscout.Client
	classifier  *Classifier
	matcher     *Matcher

	app         string
	threshold   time.Duration
	grace       time.Duration
	maxLookback time.Duration

	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewReconciler(cfg *config.Config, source diasend.Source, destination nightscout.Client, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		source:      source,
		destination: destination,
		classifier:  NewClassifier(cfg.AppName, cfg.TempBasalDurationMinutes),
		matcher:     NewMatcher(cfg.CarbMatchThreshold),
		app:         cfg.AppName,
		threshold:   cfg.CarbMatchThreshold,
		grace:       cfg.UnmatchedBolusGrace,
		maxLookback: cfg.MaxLookback,
		now:         time.Now,
		logger:      logger,
	}
}

// CycleResult summarizes one reconciliation cycle.
type CycleResult struct {
	ID         string
	From       time.Time
	To         time.Time
	Watermark  time.Time
	Entries    int
	Treatments int
	Deletions  int
	Withheld   int
	Malformed  int
	Err        error
}

// RunCycle applies the plan computed for watermark and returns the watermark of the next cycle.
// On failure the watermark is returned unchanged.
func (r *Reconciler) RunCycle(ctx context.Context, watermark time.Time) (time.Time, error) {
	result := r.Cycle(ctx, watermark)
	return result.Watermark, result.Err
}

func (r *Reconciler) Cycle(ctx context.Context, watermark time.Time) CycleResult {
	id := uuid.NewString()
	logger := r.logger.With("cycle", id)

	result := CycleResult{ID: id, Watermark: watermark}
	plan, err := r.plan(ctx, watermark, logger)
	if err != nil {
		logger.Errorw("unable to plan cycle", "watermark", watermark, zap.Error(err))
		result.Err = err
		return result
	}

	result.From = plan.From
	result.To = plan.To
	result.Entries = len(plan.Entries)
	result.Treatments = len(plan.Treatments)
	result.Deletions = len(plan.Deletions)
	result.Withheld = len(plan.Withheld)
	result.Malformed = plan.Malformed

	if err := plan.Run(ctx); err != nil {
		logger.Errorw("unable to apply plan",
			"from", plan.From, "to", plan.To,
			"entries", result.Entries, "treatments", result.Treatments, "deletions", result.Deletions,
			zap.Error(err),
		)
		result.Err = err
		return result
	}

	result.Watermark = plan.Watermark
	logger.Infow("cycle completed",
		"from", plan.From, "to", plan.To, "watermark", plan.Watermark,
		"entries", result.Entries, "treatments", result.Treatments, "deletions", result.Deletions,
		"withheld", result.Withheld, "malformed", result.Malformed,
	)
	return result
}

// Plan computes the side effects of the cycle starting after watermark without applying them.
func (r *Reconciler) Plan(ctx context.Context, watermark time.Time) (*Plan, error) {
	return r.plan(ctx, watermark, r.logger.With("cycle", uuid.NewString()))
}

func (r *Reconciler) plan(ctx context.Context, watermark time.Time, logger *zap.SugaredLogger) (*Plan, error) {
	now := r.now()
	from := watermark.Add(time.Second)

	plan := &Plan{
		From:        from,
		To:          now,
		Watermark:   watermark,
		destination: r.destination,
		logger:      logger,
	}

	records, err := r.source.FetchRecords(ctx, from, now)
	if err != nil {
		return nil, collaboratorError("fetch records", from, now, err)
	}
	if len(records) == 0 {
		logger.Debugw("no new records", "from", from, "to", now)
		return plan, nil
	}

	batch := batch{}
	earliest := records[0].Time()
	for _, record := range records {
		if record.Time().Before(earliest) {
			earliest = record.Time()
		}
		// Records that fail classification are not fetched again.
		if record.Time().After(plan.Watermark) {
			plan.Watermark = record.Time()
		}

		classification, err := r.classifier.Classify(record)
		if errors.Is(err, ErrMalformedValue) {
			logger.Warnw("dropping record with malformed value", "kind", record.Kind(), "time", record.Time(), zap.Error(err))
			plan.Malformed++
			continue
		} else if err != nil {
			return nil, err
		}
		batch.add(classification)
	}

	existingFrom := earliest.Add(-r.threshold)
	var existingTreatments []nightscout.Treatment
	var existingEntries []nightscout.Entry

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		existingTreatments, err = r.destination.FetchTreatments(groupCtx, nightscout.Filter{From: existingFrom, To: now})
		if err != nil {
			return collaboratorError("fetch treatments", existingFrom, now, err)
		}
		return nil
	})
	group.Go(func() error {
		if len(batch.entries) == 0 {
			return nil
		}
		var err error
		existingEntries, err = r.destination.FetchEntries(groupCtx, nightscout.Filter{From: earliest, To: now, App: r.app})
		if err != nil {
			return collaboratorError("fetch entries", earliest, now, err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	treatments, err := r.reconcileTreatments(plan, batch, newSnapshot(existingTreatments, r.app), now, logger)
	if err != nil {
		return nil, err
	}

	plan.Treatments, err = Deduplicate(treatments, existingTreatments)
	if err != nil {
		return nil, err
	}
	plan.Entries = DeduplicateEntries(batch.entries, existingEntries)

	return plan, nil
}

// reconcileTreatments merges the meal boli of the batch with the carb corrections of the batch and the
// unclaimed carb corrections at the destination. It returns the treatments to publish, before deduplication.
func (r *Reconciler) reconcileTreatments(plan *Plan, b batch, existing snapshot, now time.Time, logger *zap.SugaredLogger) ([]nightscout.Treatment, error) {
	var boli []nightscout.MealBolus
	for _, bolus := range b.boli {
		resolved, err := existing.isResolved(bolus)
		if err != nil {
			return nil, err
		}
		if !resolved {
			boli = append(boli, bolus)
		}
	}

	pool := existing.unclaimedCarbs()
	persistedCarbs := len(pool)
	var newCarbs []nightscout.CarbCorrection
	for _, carb := range b.carbs {
		if existing.claimed.Contains(nightscout.CarbsReference(carb)) {
			continue
		}
		persisted, err := containsEqual(existing.carbTreatments(), carb)
		if err != nil {
			return nil, err
		}
		if !persisted {
			newCarbs = append(newCarbs, carb)
		}
	}
	sortByTime(newCarbs)
	pool = append(pool, newCarbs...)

	merged := r.matcher.Merge(boli, pool)

	consumed := mapset.NewThreadUnsafeSet[int](merged.ConsumedIndices...)
	for _, carb := range merged.Consumed {
		if carb.ID != "" {
			plan.Deletions = append(plan.Deletions, carb)
		}
	}
	// Persisted carb corrections claimed by a persisted meal bolus are left over from an interrupted cycle.
	for _, carb := range existing.claimedCarbs() {
		plan.Deletions = append(plan.Deletions, carb)
	}

	treatments := append([]nightscout.Treatment{}, b.others...)
	for i, carb := range pool[persistedCarbs:] {
		if !consumed.Contains(persistedCarbs + i) {
			treatments = append(treatments, carb)
		}
	}
	for _, bolus := range merged.Resolved {
		treatments = append(treatments, bolus)
		superseded, err := existing.unresolvedMatching(bolus)
		if err != nil {
			return nil, err
		}
		plan.Deletions = append(plan.Deletions, superseded...)
	}

	var withheldSince time.Time
	for _, bolus := range merged.Unresolved {
		if now.Sub(bolus.Time()) < r.grace {
			logger.Infow("withholding meal bolus until its carbs arrive", "time", bolus.Time(), "insulin", bolus.Insulin)
			plan.Withheld = append(plan.Withheld, bolus)
			if withheldSince.IsZero() || bolus.Time().Before(withheldSince) {
				withheldSince = bolus.Time()
			}
			continue
		}
		logger.Warnw("publishing meal bolus without carbs", "time", bolus.Time(), "insulin", bolus.Insulin, "grace", r.grace)
		treatments = append(treatments, bolus)
	}

	// The next cycle has to see the withheld boli and the carbs logged before them again.
	if !withheldSince.IsZero() {
		hold := withheldSince.Add(-r.threshold - time.Second)
		if hold.Before(plan.From.Add(-time.Second)) {
			hold = plan.From.Add(-time.Second)
		}
		if hold.Before(plan.Watermark) {
			plan.Watermark = hold
		}
	}

	plan.Deletions = uniqueByID(plan.Deletions)
	sortByTime(treatments)
	return treatments, nil
}

// InitialWatermark is the time of the latest treatment or entry the bridge published. Withheld
// meal boli are not persisted, so the watermark is moved back by the grace period to derive them
// again. It is never earlier than the maximum lookback.
func (r *Reconciler) InitialWatermark(ctx context.Context) (time.Time, error) {
	floor := r.now().Add(-r.maxLookback)

	latest := make([]time.Time, len(nightscout.HandledEventTypes)+1)
	group, groupCtx := errgroup.WithContext(ctx)
	for i, eventType := range nightscout.HandledEventTypes {
		group.Go(func() error {
			treatments, err := r.destination.FetchTreatments(groupCtx, nightscout.Filter{EventType: eventType, App: r.app, Count: 1})
			if err != nil {
				return collaboratorError("fetch latest "+string(eventType), time.Time{}, time.Time{}, err)
			}
			if len(treatments) > 0 {
				latest[i] = treatments[0].Time()
			}
			return nil
		})
	}
	group.Go(func() error {
		entries, err := r.destination.FetchEntries(groupCtx, nightscout.Filter{App: r.app, Count: 1})
		if err != nil {
			return collaboratorError("fetch latest entry", time.Time{}, time.Time{}, err)
		}
		if len(entries) > 0 {
			latest[len(latest)-1] = entries[0].Time()
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return time.Time{}, err
	}

	watermark := floor
	for _, t := range latest {
		if t.IsZero() {
			continue
		}
		if candidate := t.Add(-r.grace); candidate.After(watermark) {
			watermark = candidate
		}
	}

	r.logger.Infow("determined initial watermark", "watermark", watermark, "floor", floor)
	return watermark, nil
}

// batch holds the classified records of one cycle.
type batch struct {
	entries []nightscout.Entry
	boli    []nightscout.MealBolus
	carbs   []nightscout.CarbCorrection
	others  []nightscout.Treatment
}

func (b *batch) add(c Classification) {
	if c.Entry != nil {
		b.entries = append(b.entries, c.Entry)
		return
	}
	switch t := c.Treatment.(type) {
	case nightscout.MealBolus:
		b.boli = append(b.boli, t)
	case nightscout.CarbCorrection:
		b.carbs = append(b.carbs, t)
	default:
		b.others = append(b.others, t)
	}
}

// snapshot is the state of the destination the cycle is planned on.
type snapshot struct {
	carbs      []nightscout.CarbCorrection
	resolved   []nightscout.ResolvedMealBolus
	unresolved []nightscout.MealBolus
	// Carbs references of the persisted meal boli.
	claimed mapset.Set[string]
}

// newSnapshot only keeps carb corrections and meal boli published by app. Treatments entered by
// other means are never merged or deleted.
func newSnapshot(treatments []nightscout.Treatment, app string) snapshot {
	s := snapshot{claimed: mapset.NewThreadUnsafeSet[string]()}
	for _, t := range treatments {
		if t.TreatmentBase().App != app {
			continue
		}
		switch v := t.(type) {
		case nightscout.CarbCorrection:
			s.carbs = append(s.carbs, v)
		case nightscout.ResolvedMealBolus:
			s.resolved = append(s.resolved, v)
			if v.CarbsReference != "" {
				s.claimed.Add(v.CarbsReference)
			}
		case nightscout.MealBolus:
			s.unresolved = append(s.unresolved, v)
		}
	}
	sortByTime(s.carbs)
	return s
}

func (s snapshot) unclaimedCarbs() []nightscout.CarbCorrection {
	var carbs []nightscout.CarbCorrection
	for _, carb := range s.carbs {
		if !s.claimed.Contains(nightscout.CarbsReference(carb)) {
			carbs = append(carbs, carb)
		}
	}
	return carbs
}

func (s snapshot) claimedCarbs() []nightscout.Treatment {
	var carbs []nightscout.Treatment
	for _, carb := range s.carbs {
		if s.claimed.Contains(nightscout.CarbsReference(carb)) {
			carbs = append(carbs, carb)
		}
	}
	return carbs
}

func (s snapshot) carbTreatments() []nightscout.Treatment {
	treatments := make([]nightscout.Treatment, 0, len(s.carbs))
	for _, carb := range s.carbs {
		treatments = append(treatments, carb)
	}
	return treatments
}

// isResolved reports whether the meal bolus was already published with its carbs.
func (s snapshot) isResolved(bolus nightscout.MealBolus) (bool, error) {
	for _, r := range s.resolved {
		equal, err := Equal(bolus, nightscout.MealBolus{Base: r.Base, Insulin: r.Insulin})
		if err != nil || equal {
			return equal, err
		}
	}
	return false, nil
}

// unresolvedMatching returns the persisted meal boli without carbs that bolus resolves.
func (s snapshot) unresolvedMatching(bolus nightscout.ResolvedMealBolus) ([]nightscout.Treatment, error) {
	var matching []nightscout.Treatment
	for _, u := range s.unresolved {
		equal, err := Equal(nightscout.MealBolus{Base: bolus.Base, Insulin: bolus.Insulin}, u)
		if err != nil {
			return nil, err
		}
		if equal {
			matching = append(matching, u)
		}
	}
	return matching, nil
}

func uniqueByID(treatments []nightscout.Treatment) []nightscout.Treatment {
	seen := mapset.NewThreadUnsafeSet[string]()
	unique := treatments[:0]
	for _, t := range treatments {
		if seen.Add(t.TreatmentBase().ID) {
			unique = append(unique, t)
		}
	}
	return unique
}

func sortByTime[T nightscout.Treatment](treatments []T) {
	sort.SliceStable(treatments, func(i, j int) bool {
		return treatments[i].Time().Before(treatments[j].Time())
	})
}
