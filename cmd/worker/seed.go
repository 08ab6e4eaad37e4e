package main

import (
	"context"
	"time"

	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/catalog"
	"github.com/address-cleaner/internal/search"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type seedOptions struct {
	mongoURL  string
	mongoDB   string
	meiliURL  string
	meiliKey  string
	indexName string
	dryRun    bool
	rebuild   bool
}

func seedCmd(root *rootOptions) *cobra.Command {
	opts := &seedOptions{}

	c := &cobra.Command{
		Use:   "seed",
		Short: "Validate và seed catalog vào MongoDB và Meilisearch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cat, err := catalog.Load(cfg.Catalog.Path, cfg.Catalog.OutliersPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var db *mongo.Database
			if opts.mongoURL != "" && !opts.dryRun {
				client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.mongoURL))
				if err != nil {
					return err
				}
				defer client.Disconnect(context.Background())
				db = client.Database(opts.mongoDB)
			}

			var indexer services.CatalogIndexer
			if !opts.dryRun {
				index, err := search.NewCatalogIndex(search.Config{
					Host:      opts.meiliURL,
					APIKey:    opts.meiliKey,
					IndexName: opts.indexName,
					Timeout:   5 * time.Minute,
				}, logger.Named("search"))
				if err != nil {
					return err
				}
				indexer = index
			}

			admin := services.NewAdminService(cat, indexer, db, nil, nil, logger)
			validation, result, err := admin.SeedCatalog(ctx, opts.dryRun, opts.rebuild)
			for _, w := range validation.Warnings {
				logger.Warn("Catalog", zap.String("warning", w))
			}
			if err != nil {
				return err
			}

			fields := []zap.Field{
				zap.String("catalog_version", cat.Version()),
				zap.Bool("validation_passed", validation.Passed),
				zap.String("estimated_build_time", validation.EstimatedBuildTime),
			}
			if result != nil {
				fields = append(fields,
					zap.Int("units_processed", result.UnitsProcessed),
					zap.Int64("processing_time_ms", result.ProcessingTimeMs))
			}
			logger.Info("Seed hoàn tất", fields...)
			return nil
		},
	}

	c.Flags().StringVar(&opts.mongoURL, "mongo-url", "", "MongoDB URI, rỗng thì bỏ qua collection admin_units")
	c.Flags().StringVar(&opts.mongoDB, "mongo-db", "address_cleaner", "tên database")
	c.Flags().StringVar(&opts.meiliURL, "meili-url", "http://localhost:7700", "Meilisearch host")
	c.Flags().StringVar(&opts.meiliKey, "meili-key", "", "Meilisearch master key")
	c.Flags().StringVar(&opts.indexName, "index", "admin_units", "tên index")
	c.Flags().BoolVar(&opts.dryRun, "dry-run", false, "chỉ validate, không ghi")
	c.Flags().BoolVar(&opts.rebuild, "rebuild-indexes", true, "cấu hình lại settings index trước khi seed")
	return c
}
