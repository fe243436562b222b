package report

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/pkg/anthropic"
)

// Writer turns an analysis into a narrative planning report.
type Writer interface {
	Write(ctx context.Context, result *model.AnalysisResult) (model.PlanningReport, error)
}

const systemPrompt = "You are a professional UK planning consultant. Using ONLY the data provided, " +
	"write a structured planning intelligence report. Do not speculate beyond the data."

const reportTemperature = 0.3

// LLMWriter writes reports with an Anthropic model.
type LLMWriter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewLLMWriter creates an LLMWriter.
func NewLLMWriter(client anthropic.Client, model string, maxTokens int64) *LLMWriter {
	return &LLMWriter{client: client, model: model, maxTokens: maxTokens}
}

// Write implements Writer.
func (w *LLMWriter) Write(ctx context.Context, result *model.AnalysisResult) (model.PlanningReport, error) {
	temp := reportTemperature
	resp, err := w.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       w.model,
		MaxTokens:   w.maxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(result)}},
		Temperature: &temp,
	})
	if err != nil {
		return model.PlanningReport{}, eris.Wrap(err, "report: create message")
	}
	resp.Usage.LogCost(w.model, "report")

	var rep model.PlanningReport
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &rep); err != nil {
		zap.L().Warn("report: unparseable model output",
			zap.String("postcode", result.Postcode),
			zap.String("stop_reason", resp.StopReason),
		)
		return model.PlanningReport{}, eris.Wrap(err, "report: parse model output")
	}
	if strings.TrimSpace(rep.OverallOutlook) == "" {
		return model.PlanningReport{}, eris.New("report: model output has no overall_outlook")
	}
	if rep.KeyRisks == nil {
		rep.KeyRisks = []string{}
	}
	if rep.RiskMitigation == nil {
		rep.RiskMitigation = []string{}
	}
	return rep, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// buildPrompt renders the analysis as the user message. Numbers use en-GB
// grouping so prices read as "£6,000".
func buildPrompt(r *model.AnalysisResult) string {
	p := message.NewPrinter(language.BritishEnglish)
	c := r.Constraints
	pm := r.PlanningMetrics
	m := r.MarketMetrics

	var b strings.Builder
	b.WriteString(p.Sprintf("LOCATION: %s (%s, %s)\n\n", r.Postcode, r.Location.District, r.Location.Ward))

	b.WriteString("CONSTRAINTS:\n")
	b.WriteString(p.Sprintf("- Flood Zone: %d (1=low, 2=medium, 3=high risk)\n", c.FloodZone))
	b.WriteString(p.Sprintf("- Conservation Area: %s\n", yesNo(c.InConservationArea)))
	b.WriteString(p.Sprintf("- Greenbelt: %s\n", yesNo(c.InGreenbelt)))
	b.WriteString(p.Sprintf("- Article 4 Zone: %s\n\n", yesNo(c.InArticle4Zone)))

	b.WriteString("PLANNING METRICS:\n")
	b.WriteString(p.Sprintf("- Local approval rate: %.1f%%\n", pm.LocalApprovalRate*100))
	b.WriteString(p.Sprintf("- Average decision time: %.0f days\n", pm.AvgDecisionTimeDays))
	b.WriteString(p.Sprintf("- Similar applications nearby: %d\n\n", pm.SimilarApplicationsNearby))

	b.WriteString("MARKET METRICS:\n")
	b.WriteString(p.Sprintf("- Average price per m²: £%.0f\n", m.AvgPricePerM2))
	b.WriteString(p.Sprintf("- Price trend (24 months): %+.1f%%\n", m.PriceTrend24m*100))
	b.WriteString(p.Sprintf("- Average EPC rating: %s\n\n", m.AvgEPCRating))

	if len(r.Schools) > 0 {
		b.WriteString("NEARBY SCHOOLS:\n")
		for _, s := range r.Schools {
			b.WriteString(p.Sprintf("- %s (%s), %dm\n", s.Name, s.Type, s.DistanceM))
		}
		b.WriteString("\n")
	}

	b.WriteString("PROJECT:\n")
	b.WriteString(p.Sprintf("- %s on a %s property, %d storey(s), %.0f m²\n\n",
		r.ProjectParams.ApplicationType, r.ProjectParams.PropertyType,
		r.ProjectParams.NumStoreys, r.ProjectParams.EstimatedFloorAreaM2))

	b.WriteString("PREDICTION:\n")
	b.WriteString(p.Sprintf("- Approval probability: %.1f%%\n", r.MLPrediction.ApprovalProbability*100))
	b.WriteString(p.Sprintf("- Viability score: %.1f/100\n\n", r.ViabilityScore))

	b.WriteString(`Respond in this exact JSON format with no additional text:
{
  "overall_outlook": "<2-3 sentence summary of development prospects>",
  "key_risks": ["<risk 1>", "<risk 2>", "<risk 3>"],
  "strategic_recommendation": "<1-2 sentence actionable recommendation>",
  "risk_mitigation": ["<mitigation 1>", "<mitigation 2>", "<mitigation 3>"]
}`)
	return b.String()
}

// cleanJSON extracts the JSON object from text that may be wrapped in
// markdown code fences or prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
