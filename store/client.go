package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ConnectTimeout = 20 * time.Second
)

func NewClient(cfg *Config) (*mongo.Client, error) {
	cs, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}
	return NewClientFromURI(cs)
}

func NewClientFromURI(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}

	return client, nil
}
