package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Check that the configured credentials can obtain a token",
		Long: "Requests an application token with the client credentials grant and\n" +
			"prints its environment and expiry. The token itself is only printed\n" +
			"with --show.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens := newBrowseClient(cfg, newLogger(cfg)).Tokens()

			tok, err := tokens.TokenSource(cmd.Context()).Token()
			if err != nil {
				return fmt.Errorf("requesting token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", tokens.Environment())
			fmt.Fprintf(out, "endpoint:    %s\n", tokens.TokenURL())
			fmt.Fprintf(out, "expires:     %s (in %s)\n",
				tok.Expiry.Format(time.RFC3339),
				time.Until(tok.Expiry).Round(time.Second),
			)
			if show {
				fmt.Fprintf(out, "token:       %s\n", tok.AccessToken)
			} else {
				fmt.Fprintf(out, "token:       %s\n", redact(tok.AccessToken))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the full access token")

	return cmd
}

// redact keeps only a short prefix of a secret.
func redact(s string) string {
	const keep = 6
	if len(s) <= keep {
		return "[REDACTED]"
	}
	return s[:keep] + "...[REDACTED]"
}
