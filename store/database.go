package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

func NewDatabase(client *mongo.Client, cfg *Config, lifecycle fx.Lifecycle) (*mongo.Database, error) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})
	return client.Database(cfg.DatabaseName), nil
}
