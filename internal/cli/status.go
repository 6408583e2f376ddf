package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avmjs/vapdeploy/internal/eval"
	"github.com/avmjs/vapdeploy/internal/pipeline"
	"github.com/avmjs/vapdeploy/internal/records"
)

var (
	statusManifest    string
	statusEnvironment string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted deployment records",
	Long:  `Displays the recorded addresses from the prior run's output document.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusManifest, "manifest", "m", "vapdeploy.yaml", "Deployment manifest (.pkl, .yaml, or .yml)")
	statusCmd.Flags().StringVarP(&statusEnvironment, "environment", "e", "", "Limit output to one environment")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manifest, err := eval.Load(ctx, statusManifest)
	if err != nil {
		return err
	}

	var store records.Backend
	if manifest.Output.Backend != nil {
		store, err = records.NewBackend(&records.BackendConfig{
			Type:   manifest.Output.Backend.Type,
			Config: manifest.Output.Backend.Config,
		})
		if err != nil {
			return err
		}
	} else {
		filename := manifest.Output.Filename
		if filename == "" {
			filename = pipeline.DefaultFilename
		}
		store = records.NewManager(filepath.Join(manifest.Output.Path, filename), manifest.Output.Safe)
	}

	doc, err := store.Read(ctx)
	if err != nil {
		return err
	}

	if statusEnvironment != "" {
		recs, ok := doc[statusEnvironment]
		if !ok {
			return fmt.Errorf("no records for environment %q", statusEnvironment)
		}
		return printJSON(recs)
	}
	return printJSON(doc)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
