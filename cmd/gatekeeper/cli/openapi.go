package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Write the OpenAPI 3 document of the admin API",
		Example: `  gatekeeper openapi                          # print to stdout
  gatekeeper openapi -o openapi.json --base-url https://auth.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(outputFile, baseURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to advertise in the document")

	return cmd
}

func runOpenAPI(outputFile, baseURL string) error {
	doc := openapi.Generate(openapi.Info{Version: versionString(), BaseURL: baseURL})
	if err := doc.Validate(context.Background()); err != nil {
		return fmt.Errorf("generated document is invalid: %w", err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	raw = append(raw, '\n')

	if outputFile == "" {
		_, err := os.Stdout.Write(raw)
		return err
	}
	if err := os.WriteFile(outputFile, raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Printf("Wrote %s\n", outputFile)
	return nil
}
