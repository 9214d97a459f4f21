package deletions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Metadata describes why documents were removed from the destination.
type Metadata struct {
	Reason string `bson:"reason,omitempty"`
}

type Repository[T any] interface {
	Create(context.Context, T, Metadata) error
	CreateMany(context.Context, []T, Metadata) error
	Initialize(ctx context.Context, primaryKeyAttributes []string) error
}

func NewRepository[T any](typ string, db *mongo.Database, logger *zap.SugaredLogger) (Repository[T], error) {
	repo := &deletionsRepository[T]{
		collection:   db.Collection(fmt.Sprintf("%s_deletions", typ)),
		logger:       logger,
		documentType: typ,
		now:          time.Now,
	}

	return repo, nil
}

type deletionsRepository[T any] struct {
	collection   *mongo.Collection
	logger       *zap.SugaredLogger
	documentType string
	now          func() time.Time
}

func (p *deletionsRepository[T]) Initialize(ctx context.Context, primaryKeyAttributes []string) error {
	_, err := p.collection.Indexes().CreateMany(ctx, p.getIndexes(primaryKeyAttributes))
	return err
}

func (p *deletionsRepository[T]) getIndexes(primaryKeyAttributes []string) []mongo.IndexModel {
	var primaryIndexKeys bson.D

	for _, attr := range primaryKeyAttributes {
		primaryIndexKeys = append(primaryIndexKeys, primitive.E{
			Key:   fmt.Sprintf("%s.%s", p.documentType, attr),
			Value: 1,
		})
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    append(bson.D{primitive.E{Key: "deletedTime", Value: 1}}, primaryIndexKeys...),
			Options: options.Index().SetName("DeletedTime"),
		},
	}
	if len(primaryIndexKeys) > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    primaryIndexKeys,
			Options: options.Index().SetName("DeletedDocument"),
		})
	}
	return indexes
}

func (p *deletionsRepository[T]) Create(ctx context.Context, deleted T, meta Metadata) error {
	document := p.prepareDocument(deleted, meta)
	if _, err := p.collection.InsertOne(ctx, document); err != nil {
		return fmt.Errorf("error persisting deleted object in collection %s: %w", p.collection.Name(), err)
	}
	return nil
}

func (p *deletionsRepository[T]) CreateMany(ctx context.Context, deleted []T, meta Metadata) error {
	if len(deleted) == 0 {
		return nil
	}

	documents := make([]interface{}, 0, len(deleted))
	for _, d := range deleted {
		documents = append(documents, p.prepareDocument(d, meta))
	}

	if _, err := p.collection.InsertMany(ctx, documents); err != nil {
		return fmt.Errorf("error persisting deleted objects in collection %s: %w", p.collection.Name(), err)
	}
	p.logger.Debugw("archived deleted documents", "collection", p.collection.Name(), "count", len(documents))
	return nil
}

func (p *deletionsRepository[T]) prepareDocument(deleted T, meta Metadata) bson.M {
	deletion := bson.M{
		"deletedTime":  p.now(),
		p.documentType: deleted,
	}
	if meta.Reason != "" {
		deletion["reason"] = meta.Reason
	}
	return deletion
}
