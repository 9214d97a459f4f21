package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/deletions"
	"github.com/burnedikt/diasend-nightscout-bridge/errors"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/store"
)

const (
	treatmentsCollectionName = "treatments"
	entriesCollectionName    = "entries"
	profileCollectionName    = "profile"

	deletionReason = "removed by diasend bridge"
)

// Repository is a nightscout.Client operating directly on the collections of a Nightscout database.
type Repository struct {
	treatments *mongo.Collection
	entries    *mongo.Collection
	profiles   *mongo.Collection
	deletions  deletions.Repository[bson.M]
	logger     *zap.SugaredLogger
}

var _ nightscout.Client = &Repository{}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (*Repository, error) {
	deletionsRepo, err := deletions.NewRepository[bson.M](treatmentsCollectionName, db, logger)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		treatments: db.Collection(treatmentsCollectionName),
		entries:    db.Collection(entriesCollectionName),
		profiles:   db.Collection(profileCollectionName),
		deletions:  deletionsRepo,
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *Repository) Initialize(ctx context.Context) error {
	_, err := r.treatments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
				{Key: "eventType", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("TreatmentsByTime"),
		},
	})
	if err != nil {
		return err
	}

	_, err = r.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "date", Value: -1},
				{Key: "type", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("EntriesByTime"),
		},
	})
	if err != nil {
		return err
	}

	return r.deletions.Initialize(ctx, []string{"_id"})
}

func (r *Repository) FetchTreatments(ctx context.Context, filter nightscout.Filter) ([]nightscout.Treatment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.Limit()))

	docs, err := r.find(ctx, r.treatments, treatmentsSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch treatments: %w", err)
	}

	treatments := make([]nightscout.Treatment, 0, len(docs))
	for _, doc := range docs {
		t, err := nightscout.DecodeTreatment(doc)
		if err != nil {
			r.logger.Warnw("skipping undecodable treatment", "id", doc["_id"], zap.Error(err))
			continue
		}
		treatments = append(treatments, t)
	}
	return treatments, nil
}

func (r *Repository) CreateTreatments(ctx context.Context, treatments []nightscout.Treatment) ([]nightscout.Treatment, error) {
	if len(treatments) == 0 {
		return nil, nil
	}

	docs := make([]interface{}, 0, len(treatments))
	for _, t := range treatments {
		docs = append(docs, nightscout.Document(t))
	}

	res, err := r.treatments.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("unable to create treatments: %w", err)
	}

	created := make([]nightscout.Treatment, 0, len(docs))
	for i, doc := range docs {
		d := doc.(map[string]interface{})
		d["_id"] = store.IDToString(res.InsertedIDs[i])
		t, err := nightscout.DecodeTreatment(d)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

// DeleteTreatments archives the matching treatments to the deletions collection before removing them.
func (r *Repository) DeleteTreatments(ctx context.Context, filter nightscout.Filter) error {
	if filter.ID == "" && filter.EventType == "" && filter.App == "" && filter.From.IsZero() {
		return nightscout.ErrUnboundedDelete
	}

	selector := treatmentsSelector(filter)
	cursor, err := r.treatments.Find(ctx, selector)
	if err != nil {
		return fmt.Errorf("unable to find treatments to delete: %w", err)
	}
	var deleted []bson.M
	if err := cursor.All(ctx, &deleted); err != nil {
		return fmt.Errorf("unable to decode treatments to delete: %w", err)
	}
	if len(deleted) == 0 {
		return nil
	}

	if err := r.deletions.CreateMany(ctx, deleted, deletions.Metadata{Reason: deletionReason}); err != nil {
		return err
	}

	res, err := r.treatments.DeleteMany(ctx, selector)
	if err != nil {
		return fmt.Errorf("unable to delete treatments: %w", err)
	}
	r.logger.Debugw("deleted treatments", "count", res.DeletedCount)
	return nil
}

func (r *Repository) FetchEntries(ctx context.Context, filter nightscout.Filter) ([]nightscout.Entry, error) {
	selector := bson.M{}
	if filter.ID != "" {
		selector["_id"] = store.ObjectIDFilterValue(filter.ID)
	}
	if filter.EntryType != "" {
		selector["type"] = string(filter.EntryType)
	}
	if filter.App != "" {
		selector["app"] = filter.App
	}
	if date := rangeSelector(filter, func(t time.Time) interface{} { return t.UnixMilli() }); date != nil {
		selector["date"] = date
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(filter.Limit()))

	docs, err := r.find(ctx, r.entries, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch entries: %w", err)
	}

	entries := make([]nightscout.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := nightscout.DecodeEntry(doc)
		if err != nil {
			r.logger.Debugw("skipping entry", "id", doc["_id"], zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Repository) CreateEntries(ctx context.Context, entries []nightscout.Entry) ([]nightscout.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, nightscout.EntryDocument(e))
	}

	res, err := r.entries.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("unable to create entries: %w", err)
	}

	created := make([]nightscout.Entry, 0, len(docs))
	for i, doc := range docs {
		d := doc.(map[string]interface{})
		d["_id"] = store.IDToString(res.InsertedIDs[i])
		e, err := nightscout.DecodeEntry(d)
		if err != nil {
			return nil, err
		}
		created = append(created, e)
	}
	return created, nil
}

// FetchProfile returns the most recent profile document, which Nightscout treats as the active one.
func (r *Repository) FetchProfile(ctx context.Context) (*nightscout.Profile, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "startDate", Value: -1}})

	var doc bson.M
	err := r.profiles.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("unable to fetch profile: %w", errors.NotFound)
	} else if err != nil {
		return nil, fmt.Errorf("unable to fetch profile: %w", err)
	}

	return nightscout.DecodeProfile(normalize(doc))
}

func (r *Repository) UpdateProfile(ctx context.Context, profile *nightscout.Profile) (*nightscout.Profile, error) {
	doc := nightscout.ProfileDocument(*profile)
	delete(doc, "_id")

	id := profile.ID
	if id == "" {
		res, err := r.profiles.InsertOne(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("unable to create profile: %w", err)
		}
		id = store.IDToString(res.InsertedID)
	} else {
		selector := bson.M{"_id": store.ObjectIDFilterValue(id)}
		if _, err := r.profiles.ReplaceOne(ctx, selector, doc, options.Replace().SetUpsert(true)); err != nil {
			return nil, fmt.Errorf("unable to update profile: %w", err)
		}
	}

	updated := *profile
	updated.ID = id
	return &updated, nil
}

func (r *Repository) find(ctx context.Context, collection *mongo.Collection, selector bson.M, opts *options.FindOptions) ([]map[string]interface{}, error) {
	cursor, err := collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, err
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, err
	}

	docs := make([]map[string]interface{}, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, normalize(doc))
	}
	return docs, nil
}

func treatmentsSelector(filter nightscout.Filter) bson.M {
	selector := bson.M{}
	if filter.ID != "" {
		selector["_id"] = store.ObjectIDFilterValue(filter.ID)
	}
	if filter.EventType != "" {
		selector["eventType"] = string(filter.EventType)
	}
	if filter.App != "" {
		selector["app"] = filter.App
	}
	if createdAt := rangeSelector(filter, func(t time.Time) interface{} { return nightscout.FormatTime(t) }); createdAt != nil {
		selector["created_at"] = createdAt
	}
	return selector
}

func rangeSelector(filter nightscout.Filter, value func(time.Time) interface{}) bson.M {
	if filter.From.IsZero() && filter.To.IsZero() {
		return nil
	}
	r := bson.M{}
	if !filter.From.IsZero() {
		r["$gte"] = value(filter.From)
	}
	if !filter.To.IsZero() {
		r["$lte"] = value(filter.To)
	}
	return r
}

// normalize converts driver types into the representation the Nightscout API uses.
func normalize(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		switch value := v.(type) {
		case primitive.ObjectID:
			out[k] = value.Hex()
		case primitive.DateTime:
			out[k] = value.Time().UTC()
		default:
			out[k] = v
		}
	}
	return out
}
