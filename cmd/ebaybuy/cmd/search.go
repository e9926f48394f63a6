package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/ebaybuy/internal/api/client"
	"github.com/donaldgifford/ebaybuy/internal/api/handlers"
	"github.com/donaldgifford/ebaybuy/internal/ebay"
	"github.com/donaldgifford/ebaybuy/internal/export"
)

type searchOptions struct {
	anyOf       bool
	categoryIDs []string
	limit       int
	offset      int
	sort        string
	descending  bool
	pages       int
	filters     []string
	format      string
	out         string
}

func searchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Search eBay listings",
		Long: "Runs an item_summary/search query and prints the results as a table,\n" +
			"JSON or CSV. With --pages > 1 the following pages are fetched too.",
		Example: `  ebaybuy search drone --limit 25
  ebaybuy search drone quadcopter --any --filter price_max=100 --filter conditions=new
  ebaybuy search "playstation 5" --pages 3 --format csv --out ps5.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.anyOf, "any", false, "match any keyword instead of all")
	f.StringSliceVar(&opts.categoryIDs, "category", nil, "restrict to eBay category IDs")
	f.IntVar(&opts.limit, "limit", 10, "items per page (1-200)")
	f.IntVar(&opts.offset, "offset", 0, "items to skip")
	f.StringVar(&opts.sort, "sort", "", "sort field, e.g. price")
	f.BoolVar(&opts.descending, "desc", false, "sort descending")
	f.IntVar(&opts.pages, "pages", 0, "pages to fetch (default from config max_pages)")
	f.StringArrayVar(&opts.filters, "filter", nil, "filter as key=value, repeatable")
	f.StringVar(&opts.format, "format", "table", "output format (table, json, csv)")
	f.StringVar(&opts.out, "out", "", "write output to a file instead of stdout")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts *searchOptions) error {
	write, err := writerFor(opts.format)
	if err != nil {
		return err
	}

	var srcs []export.DataSource
	var summary string
	if server := viper.GetString("server"); server != "" {
		srcs, summary, err = searchViaProxy(cmd.Context(), server, args, opts)
	} else {
		srcs, summary, err = searchDirect(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.out != "" {
		file, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := write(w, srcs...); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if opts.format == "table" || opts.out != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), summary)
	}
	return nil
}

func searchDirect(ctx context.Context, args []string, opts *searchOptions) ([]export.DataSource, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	bc := newBrowseClient(cfg, newLogger(cfg))

	q, err := buildQuery(args, opts)
	if err != nil {
		return nil, "", err
	}

	first, err := bc.Search(ctx, q)
	if err != nil {
		return nil, "", err
	}

	pages := opts.pages
	if pages <= 0 {
		pages = cfg.Ebay.MaxPages
	}
	if pages <= 1 {
		return []export.DataSource{first}, pageSummary(len(first.Items()), first.Total(), 1, ""), nil
	}

	result, err := ebay.Collect(ctx, first, pages)
	if err != nil {
		return nil, "", err
	}
	srcs := make([]export.DataSource, 0, len(result.Pages))
	for _, p := range result.Pages {
		srcs = append(srcs, p)
	}
	return srcs, pageSummary(len(result.Items), first.Total(), result.PagesUsed, result.StoppedAt), nil
}

func searchViaProxy(
	ctx context.Context,
	server string,
	args []string,
	opts *searchOptions,
) ([]export.DataSource, string, error) {
	filters := make(map[string]string, len(opts.filters))
	for _, f := range opts.filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, "", fmt.Errorf("invalid filter format %q: expected key=value", f)
		}
		filters[key] = value
	}

	query := strings.Join(args, " ")
	if opts.anyOf {
		query = strings.Join(args, ",")
	}

	res, err := proxyClient(server).Search(ctx, &client.SearchRequest{
		Query:       query,
		AnyOf:       opts.anyOf,
		CategoryIDs: opts.categoryIDs,
		Limit:       opts.limit,
		Offset:      opts.offset,
		Sort:        opts.sort,
		Descending:  opts.descending,
		Filters:     filters,
		Pages:       opts.pages,
	})
	if err != nil {
		return nil, "", err
	}
	return []export.DataSource{res}, pageSummary(len(res.Items), res.Total, res.PagesUsed, res.StoppedAt), nil
}

func buildQuery(args []string, opts *searchOptions) (ebay.SearchQuery, error) {
	q := ebay.NewSearch()
	if opts.anyOf {
		q = q.AnyKeywords(args...)
	} else {
		q = q.Keywords(args...)
	}
	if len(opts.categoryIDs) > 0 {
		q = q.CategoryIDs(opts.categoryIDs...)
	}
	q = q.Limit(opts.limit).Offset(opts.offset).Sort(opts.sort, !opts.descending)

	filters, err := handlers.ParseFilters(opts.filters)
	if err != nil {
		return ebay.SearchQuery{}, err
	}
	q = handlers.ApplyFilters(q, filters)

	if err := q.Validate(); err != nil {
		return ebay.SearchQuery{}, err
	}
	return q, nil
}

func pageSummary(shown, total, pagesUsed int, stoppedAt string) string {
	s := fmt.Sprintf("Showing %d of %d items (%d page", shown, total, pagesUsed)
	if pagesUsed != 1 {
		s += "s"
	}
	if stoppedAt != "" {
		s += ", stopped: " + stoppedAt
	}
	return s + ")"
}

func writerFor(format string) (func(io.Writer, ...export.DataSource) error, error) {
	switch format {
	case "table":
		return export.WriteTable, nil
	case "json":
		return export.WriteJSON, nil
	case "csv":
		return export.WriteCSV, nil
	default:
		return nil, fmt.Errorf("unknown format %q: expected table, json or csv", format)
	}
}
