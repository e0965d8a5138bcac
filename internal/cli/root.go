// Package cli implements the geodexctl command line: bulk and single
// entity indexing, search, autocomplete and catalog import.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
	"github.com/kailas-cloud/geodex/internal/version"
)

// Indexer writes and removes search documents.
type Indexer interface {
	Reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error)
	Delete(ctx context.Context, kind domain.Kind, id int64) error
	ReindexAll(
		ctx context.Context, lister indexinguc.IDLister, kinds []domain.Kind, opts indexinguc.BulkOptions,
	) ([]indexinguc.BulkStats, error)
}

// Searcher runs searches and autocomplete lookups.
type Searcher interface {
	Search(ctx context.Context, resourceType string, p request.Params) (result.Page, error)
	Suggest(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestPeople(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestGroups(ctx context.Context, prefix string) ([]result.Suggestion, error)
}

// Catalog lists and imports catalog entities.
type Catalog interface {
	IDs(ctx context.Context, kind domain.Kind) ([]int64, error)
	Import(ctx context.Context, f *catalog.Fixture) (catalog.ImportStats, error)
}

// IndexManager manages the search index definitions.
type IndexManager interface {
	RecreateAll(ctx context.Context) error
}

// Services are the collaborators the commands run against.
type Services struct {
	Indexer Indexer
	Search  Searcher
	Catalog Catalog
	Indexes IndexManager
	// Bulk holds the default worker count and rate of reindex.
	Bulk indexinguc.BulkOptions
}

var (
	services   *Services
	appVersion = version.Version
)

var rootCmd = &cobra.Command{
	Use:           "geodexctl",
	Short:         "Manage the geodex search indexes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetServices installs the services the commands run against.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}
