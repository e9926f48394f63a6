package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/ebaybuy/internal/api/client"
)

func quotaCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the daily item_summary/search call quota",
		Long: "Asks eBay's Developer Analytics API how many search calls the\n" +
			"application has left. With --server the proxy reports its own\n" +
			"counters, or eBay's when --refresh is given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := fetchQuota(cmd.Context(), refresh)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "used:      %d / %d\n", q.DailyUsed, q.DailyLimit)
			fmt.Fprintf(out, "remaining: %d\n", q.Remaining)
			fmt.Fprintf(out, "resets:    %s\n", q.ResetAt.Format(time.RFC3339))
			if q.Exhausted {
				fmt.Fprintln(out, "quota exhausted; searches fail until the reset")
			}
			fmt.Fprintf(out, "source:    %s\n", q.Source)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "with --server, have the proxy ask eBay first")
	return cmd
}

// fetchQuota asks the proxy when --server is set. Without it there are no
// local counters, so eBay is always asked and refresh is moot.
func fetchQuota(ctx context.Context, refresh bool) (*client.Quota, error) {
	if server := viper.GetString("server"); server != "" {
		return proxyClient(server).Quota(ctx, refresh)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	state, err := newBrowseClient(cfg, newLogger(cfg)).BrowseQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching quota: %w", err)
	}
	return &client.Quota{
		DailyLimit: state.Limit,
		DailyUsed:  state.Count,
		Remaining:  state.Remaining,
		Exhausted:  state.Limit > 0 && state.Remaining == 0,
		ResetAt:    state.ResetAt,
		Source:     "ebay",
	}, nil
}

func proxyClient(server string) *client.Client {
	return client.New(server, client.WithUserAgent("ebaybuy/"+Version))
}
