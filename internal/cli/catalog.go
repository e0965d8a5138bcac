package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geodex/internal/repository/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the catalog database",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import a catalog fixture",
	Long: `Upserts the categories, licenses, services, profiles, groups and resources
of a YAML fixture into the catalog. Run reindex afterwards to refresh the
search documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	if services == nil || services.Catalog == nil {
		return errors.New("catalog not configured")
	}

	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	fixture, err := catalog.DecodeFixture(f)
	if err != nil {
		return err
	}

	stats, err := services.Catalog.Import(cmd.Context(), fixture)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d profiles, %d groups, %d resources.\n", stats.Profiles, stats.Groups, stats.Resources)
	return nil
}
