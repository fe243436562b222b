package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <postcode>",
	Short: "Run one viability analysis and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildAnalyzeRequest(cmd.Flags(), args[0])
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context(), cfg, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Analyzer.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), result)
	},
}

// buildAnalyzeRequest turns flags into a request. Only flags the user set
// become project fields or overrides.
func buildAnalyzeRequest(flags *pflag.FlagSet, postcode string) (analysis.Request, error) {
	req := analysis.Request{Postcode: postcode}

	var project model.ProjectInput
	if flags.Changed("application-type") {
		v, _ := flags.GetString("application-type")
		t := model.ApplicationType(v)
		project.ApplicationType = &t
	}
	if flags.Changed("property-type") {
		v, _ := flags.GetString("property-type")
		t := model.PropertyType(v)
		project.PropertyType = &t
	}
	project.NumStoreys = changedInt(flags, "storeys")
	project.EstimatedFloorAreaM2 = changedFloat(flags, "floor-area")
	if project != (model.ProjectInput{}) {
		req.Project = &project
	}

	o := &req.Overrides
	o.FloodZone = changedInt(flags, "flood-zone")
	o.InConservationArea = changedBool(flags, "conservation-area")
	o.InGreenbelt = changedBool(flags, "greenbelt")
	o.InArticle4Zone = changedBool(flags, "article4")
	o.LocalApprovalRate = changedFloat(flags, "approval-rate")
	o.AvgDecisionDays = changedFloat(flags, "decision-days")
	o.SimilarNearby = changedInt(flags, "similar-applications")
	o.AvgPricePerM2 = changedFloat(flags, "price-per-m2")
	o.PriceTrend24m = changedFloat(flags, "price-trend")
	if flags.Changed("epc-rating") {
		v, _ := flags.GetString("epc-rating")
		o.EPCRating = &v
	}

	if err := req.Project.Resolve().Validate(); err != nil {
		return req, eris.Wrap(err, "analyze: project")
	}
	if err := o.Validate(); err != nil {
		return req, eris.Wrap(err, "analyze: overrides")
	}
	return req, nil
}

func changedInt(flags *pflag.FlagSet, name string) *int {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetInt(name)
	return &v
}

func changedFloat(flags *pflag.FlagSet, name string) *float64 {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetFloat64(name)
	return &v
}

func changedBool(flags *pflag.FlagSet, name string) *bool {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetBool(name)
	return &v
}

func writeResult(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "analyze: write result")
}

func addAnalyzeFlags(f *pflag.FlagSet) {
	f.String("application-type", "", "extension, new_build, loft_conversion, change_of_use, listed_building, demolition, other")
	f.String("property-type", "", "detached, semi_detached, terraced, flat, commercial, land")
	f.Int("storeys", 1, "number of storeys")
	f.Float64("floor-area", 30, "estimated floor area in m²")

	f.Int("flood-zone", 0, "override flood zone (1-3)")
	f.Bool("conservation-area", false, "override conservation area status")
	f.Bool("greenbelt", false, "override greenbelt status")
	f.Bool("article4", false, "override Article 4 status")
	f.Float64("approval-rate", 0, "override local approval rate (0-1)")
	f.Float64("decision-days", 0, "override mean decision time in days")
	f.Int("similar-applications", 0, "override count of nearby applications")
	f.Float64("price-per-m2", 0, "override mean price per m²")
	f.Float64("price-trend", 0, "override 24-month price trend (fraction)")
	f.String("epc-rating", "", "override EPC rating (A-G or N/A)")
}

func init() {
	addAnalyzeFlags(analyzeCmd.Flags())
	rootCmd.AddCommand(analyzeCmd)
}
