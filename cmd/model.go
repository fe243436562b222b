package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/planpilot/internal/predict"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Approval model artifact commands",
}

var modelInspectPath string

var modelInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the approval model artifact, or report fallback mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := modelInspectPath
		if path == "" {
			path = cfg.Model.Path
		}
		return inspectModel(cmd.OutOrStdout(), path)
	},
}

func inspectModel(w io.Writer, path string) error {
	m, err := predict.LoadModel(path)
	if err != nil {
		return err
	}
	if m == nil {
		_, err := fmt.Fprintf(w, "no model artifact at %q: predictor runs in fallback mode\n", path)
		return err
	}

	fmt.Fprintf(w, "model:      %s\n", path)
	fmt.Fprintf(w, "version:    %s\n", m.Version)
	fmt.Fprintf(w, "trained at: %s\n", m.TrainedAt)
	fmt.Fprintf(w, "intercept:  %.6f\n\n", m.Intercept)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tCOEFFICIENT\tMEAN\tSCALE")
	for i, name := range predict.FeatureNames {
		mean, scale := "-", "-"
		if len(m.Mean) == len(m.Coefficients) {
			mean = fmt.Sprintf("%.4f", m.Mean[i])
		}
		if len(m.Scale) == len(m.Coefficients) {
			scale = fmt.Sprintf("%.4f", m.Scale[i])
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%s\t%s\n", name, m.Coefficients[i], mean, scale)
	}
	return tw.Flush()
}

func init() {
	modelInspectCmd.Flags().StringVar(&modelInspectPath, "path", "", "model artifact path (default from config)")
	modelCmd.AddCommand(modelInspectCmd)
	rootCmd.AddCommand(modelCmd)
}
