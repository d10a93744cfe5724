package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureCollections creates the configured collections when they do not
// exist yet. Mongo would create them lazily on first insert anyway, but
// creating them up front lets list endpoints distinguish an empty resource
// from a misspelled one and surfaces permission problems at startup.
func EnsureCollections(ctx context.Context, db *mongo.Database, names []string, log *zap.SugaredLogger) error {
	if len(names) == 0 {
		log.Infow("collection bootstrap skipped", "reason", "no allow-list configured", "database", db.Name())
		return nil
	}

	start := time.Now()
	log.Infow("collection bootstrap starting", "database", db.Name(), "collections", names)

	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for _, name := range names {
		if have[name] {
			log.Debugw("collection exists", "collection", name)
			continue
		}
		stepStart := time.Now()
		if err := db.CreateCollection(ctx, name); err != nil {
			log.Errorw("collection create failed",
				"collection", name,
				"error", err,
				"duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		log.Infow("collection created",
			"collection", name,
			"duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Infow("collection bootstrap done",
		"database", db.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
