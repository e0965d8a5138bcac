package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

var (
	searchMode   string
	searchLimit  int
	searchOffset int
	searchOrder  string
	searchExtent string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <type> [query]",
	Short: "Search indexed catalog entities",
	Long: `Searches one resource type (layers, maps, documents, profiles, groups)
or every resource with "base". Modes: keyword, semantic, hybrid.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [people|groups] <prefix>",
	Short: "Autocomplete titles, people or groups",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSuggest,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(mode.Keyword), "keyword, semantic or hybrid")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", request.DefaultLimit, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "results to skip")
	searchCmd.Flags().StringVar(&searchOrder, "order-by", "", "sort field, prefix with - for descending")
	searchCmd.Flags().StringVar(&searchExtent, "extent", "", "minx,miny,maxx,maxy in WGS84")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the result page as JSON")
	rootCmd.AddCommand(searchCmd, suggestCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if services == nil || services.Search == nil {
		return errors.New("search service not configured")
	}

	p := request.Params{
		Mode:    mode.Mode(searchMode),
		Limit:   searchLimit,
		Offset:  searchOffset,
		OrderBy: searchOrder,
		Extent:  searchExtent,
	}
	if len(args) > 1 {
		p.Query = args[1]
	}

	page, err := services.Search.Search(cmd.Context(), args[0], p)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	return outputPage(cmd, page)
}

// hitSummary holds the fields shown for a hit in table output.
type hitSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username"`
	Type     string `json:"type"`
}

func outputPage(cmd *cobra.Command, page result.Page) error {
	if len(page.Objects) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results %d-%d of %d:\n", page.Meta.Offset+1, page.Meta.Offset+len(page.Objects), page.Meta.TotalCount)
	for i, raw := range page.Objects {
		var h hitSummary
		if err := json.Unmarshal(raw, &h); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
		label := h.Title
		if label == "" {
			label = h.Username
		}
		cmd.Printf("  [%d] %s (%s %d)\n", page.Meta.Offset+i+1, label, h.Type, h.ID)
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if services == nil || services.Search == nil {
		return errors.New("search service not configured")
	}

	fn := services.Search.Suggest
	prefix := args[0]
	if len(args) == 2 {
		switch strings.ToLower(args[0]) {
		case "people":
			fn = services.Search.SuggestPeople
		case "groups":
			fn = services.Search.SuggestGroups
		default:
			return fmt.Errorf("unknown suggestion scope %q: want people or groups", args[0])
		}
		prefix = args[1]
	}

	items, err := fn(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}
	if len(items) == 0 {
		cmd.Println("No suggestions.")
		return nil
	}
	for _, s := range items {
		cmd.Printf("  %s\t%s\t(%s %s)\n", s.Label, s.URL, s.Type, s.ID)
	}
	return nil
}
