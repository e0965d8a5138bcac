package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/logger"
)

var (
	reindexWorkers int
	reindexRate    float64
	reindexFresh   bool
)

var reindexCmd = &cobra.Command{
	Use:   "reindex [kind...]",
	Short: "Rebuild search documents from the catalog",
	Long: `Rebuilds the search document of every catalog entity of the given kinds
(layers, maps, documents, profiles, groups). Without arguments every kind is
reindexed. Entities that fail are logged and counted; the run continues.
With --recreate every index is dropped and created again first, which picks
up schema changes.`,
	RunE: runReindex,
}

var indexCmd = &cobra.Command{
	Use:   "index <kind> <id>",
	Short: "Index a single catalog entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runIndex,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Remove the search document of a catalog entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	reindexCmd.Flags().IntVarP(&reindexWorkers, "workers", "w", 4, "concurrent index writers (default from config)")
	reindexCmd.Flags().Float64Var(&reindexRate, "rate", 0, "entities per second, 0 for unlimited (default from config)")
	reindexCmd.Flags().BoolVar(&reindexFresh, "recreate", false, "drop and recreate all indexes before reindexing")
	rootCmd.AddCommand(reindexCmd, indexCmd, deleteCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	if services == nil || services.Indexer == nil || services.Catalog == nil {
		return errors.New("indexing service not configured")
	}

	kinds := domain.AllKinds
	if len(args) > 0 {
		kinds = make([]domain.Kind, 0, len(args))
		for _, a := range args {
			k, err := domain.ParseKind(a)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
	}

	// Flags override the configured defaults only when given.
	opts := services.Bulk
	if cmd.Flags().Changed("workers") {
		opts.Workers = reindexWorkers
	}
	if cmd.Flags().Changed("rate") {
		opts.Rate = reindexRate
	}

	ctx, log := logger.With(cmd.Context(),
		zap.String("command", "reindex"),
		zap.String("run", uuid.NewString()),
	)
	log.Info("reindex started",
		zap.Int("kinds", len(kinds)),
		zap.Int("workers", opts.Workers),
		zap.Float64("rate", opts.Rate),
		zap.Bool("recreate", reindexFresh),
	)

	if reindexFresh {
		if services.Indexes == nil {
			return errors.New("index manager not configured")
		}
		if err := services.Indexes.RecreateAll(ctx); err != nil {
			return fmt.Errorf("recreate indexes: %w", err)
		}
		cmd.Println("Indexes recreated.")
	}

	stats, err := services.Indexer.ReindexAll(ctx, services.Catalog, kinds, opts)
	for _, s := range stats {
		cmd.Printf("%-10s indexed %d, failed %d\n", s.Kind, s.Indexed, s.Failed)
		if s.Failed > 0 {
			log.Warn("entities failed to index", zap.String("kind", string(s.Kind)), zap.Int("failed", s.Failed))
		}
	}
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	if services == nil || services.Indexer == nil {
		return errors.New("indexing service not configured")
	}
	kind, id, err := parseEntity(args)
	if err != nil {
		return err
	}

	doc, err := services.Indexer.Reindex(cmd.Context(), kind, id)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if services == nil || services.Indexer == nil {
		return errors.New("indexing service not configured")
	}
	kind, id, err := parseEntity(args)
	if err != nil {
		return err
	}

	if err := services.Indexer.Delete(cmd.Context(), kind, id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Removed %s %d.\n", kind, id)
	return nil
}

func parseEntity(args []string) (domain.Kind, int64, error) {
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: id must be a positive integer, got %q", domain.ErrInvalidQuery, args[1])
	}
	return kind, id, nil
}
