package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/ebaybuy/internal/api"
	"github.com/donaldgifford/ebaybuy/internal/config"
	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

func openapiCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the proxy's OpenAPI document",
		Long:  "Prints the OpenAPI 3.1 document served by `ebaybuy serve` at /openapi.json.\nNo credentials are needed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := openAPIDocument(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml, json)")

	return cmd
}

func openAPIDocument(format string) ([]byte, error) {
	// The document only depends on the registered operations, so an
	// unconfigured client is enough.
	tokens := ebay.NewTokenManager(ebay.NewCredential("", "", nil, false))
	srv := api.NewServer(ebay.NewBrowseClient(tokens), config.Default().Server, api.WithVersion(Version))
	spec := srv.API().OpenAPI()

	switch format {
	case "yaml":
		data, err := spec.YAML()
		if err != nil {
			return nil, fmt.Errorf("encoding OpenAPI YAML: %w", err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding OpenAPI JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q: expected yaml or json", format)
	}
}
