package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasecal/pkg/source"
)

// sampleCommand creates the sample command, which exports synthetic data.
func (c *CLI) sampleCommand() *cobra.Command {
	var (
		seed   uint64
		output string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic release dataset as JSON",
		Long: `Write the synthetic dataset behind the sample: source as JSON.

The data covers January 2022 to January 2024 with two to five releases per
month and is identical for the same seed. The file can be edited and fed back
with --source.`,
		Example: `  releasecal sample --seed 7 -o releases.json
  releasecal render --source releases.json 2023Q1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := source.GenerateSample(seed)
			if output == "" || output == "-" {
				return source.WriteJSON(rows, cmd.OutOrStdout())
			}
			if err := source.ExportJSON(rows, output); err != nil {
				return err
			}
			printSuccess("Wrote %d sample releases", len(rows))
			printFile(output)
			printNewline()
			printNextStep("Render it", "releasecal render --source "+output)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
