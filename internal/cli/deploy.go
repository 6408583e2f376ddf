package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avmjs/vapdeploy/internal/eval"
	"github.com/avmjs/vapdeploy/internal/pipeline"
)

var deployManifest string

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the deployment pipeline",
	Long: `Loads the deployment manifest, stages artifacts through the configured
loaders, and deploys every artifact whose bytecode, constructor inputs,
or transaction parameters changed since the prior run.`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVarP(&deployManifest, "manifest", "m", "vapdeploy.yaml", "Deployment manifest (.pkl, .yaml, or .yml)")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manifest, err := eval.Load(ctx, deployManifest)
	if err != nil {
		return err
	}

	cfg, err := manifest.ToConfig()
	if err != nil {
		return err
	}

	result, err := pipeline.New().Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Deployed %d artifact(s) to environment %q:\n", len(result.Records), manifest.Environment.Name)
	for name, rec := range result.Records {
		fmt.Printf("  %s: %s\n", name, rec.Address)
	}
	return nil
}
