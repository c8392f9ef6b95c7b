// Command reindex rebuilds the search index from the primary store.
// Run it after an index outage or a RediSearch data loss: it walks every
// collection and re-propagates each document, which also reaps entries
// left behind by deletes that never reached the index.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/johnallens/content-platform/internal/config"
	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/index"
	"github.com/johnallens/content-platform/internal/content/repository"
	"github.com/johnallens/content-platform/internal/content/service"
	"github.com/johnallens/content-platform/internal/database"
	"github.com/johnallens/content-platform/internal/identity"
	"github.com/johnallens/content-platform/pkg/logger"
)

func main() {
	kinds := flag.String("kinds", "catalog,media,awards", "comma-separated content kinds to reindex")
	batch := flag.Int64("batch", 200, "documents fetched per batch")
	drop := flag.Bool("recreate", false, "drop and recreate each index before backfilling")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("cannot connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	searchClient, err := database.ConnectSearch(ctx, cfg.Search.Addr, cfg.Search.Password, cfg.Search.DB, cfg.Search.Timeout)
	if err != nil {
		logger.Fatalf("cannot connect to search backend: %v", err)
	}
	defer searchClient.Close()

	schemas := map[string]*content.Schema{
		"catalog": content.CatalogItem(),
		"media":   content.MediaEntry(),
		"awards":  content.AwardListing(),
	}

	for _, kind := range strings.Split(*kinds, ",") {
		kind = strings.TrimSpace(kind)
		schema, ok := schemas[kind]
		if !ok {
			logger.Warnf("unknown kind %q, skipping", kind)
			continue
		}

		idx := index.NewRedisIndex(searchClient, schema)
		if *drop {
			if err := idx.DropIndex(ctx); err != nil {
				logger.Warnf("drop index %s: %v", schema.IndexName, err)
			}
		}
		if err := idx.EnsureIndex(ctx); err != nil {
			logger.Fatalf("ensure index %s: %v", schema.IndexName, err)
		}

		store := repository.NewMongoStore(db.Collection(schema.Collection))
		svc := service.New(schema, store, idx, identity.UUID())

		start := time.Now()
		n, err := svc.Reindex(ctx, *batch)
		if err != nil {
			logger.Fatalf("reindex %s failed after %d documents: %v", kind, n, err)
		}
		logger.Infof("reindexed %s: %d documents in %s", kind, n, time.Since(start).Round(time.Millisecond))
	}
}
