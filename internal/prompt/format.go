// Package prompt renders the fixed natural-language instruction
// templates used by the completion and audio paths. Formatting is pure:
// identical inputs always produce byte-identical output.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"llm-workbench/internal/models"
)

// Placeholder substitutes any missing or empty field rather than
// failing the render.
const Placeholder = "N/A"

// Template selects one of the fixed instruction templates.
type Template int

const (
	TemplateSummary Template = iota
	TemplateTranscript
	TemplateActionPlan
	TemplateMeetingMinutes
	TemplateStockAnalysis
)

// ErrUnknownTemplate indicates an unrecognised use-case tag.
var ErrUnknownTemplate = errors.New("unknown prompt template")

var templateNames = map[Template]string{
	TemplateSummary:        "summary",
	TemplateTranscript:     "transcript",
	TemplateActionPlan:     "action_plan",
	TemplateMeetingMinutes: "meeting_minutes",
	TemplateStockAnalysis:  "stock_analysis",
}

func (t Template) String() string {
	if name, ok := templateNames[t]; ok {
		return name
	}
	return fmt.Sprintf("template(%d)", int(t))
}

// Parse resolves a use-case tag to its template.
func Parse(name string) (Template, error) {
	for tpl, tplName := range templateNames {
		if tplName == name {
			return tpl, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// Format renders any template. The audio templates ignore data;
// TemplateStockAnalysis requires a models.StockRecord.
func Format(tpl Template, data any) (string, error) {
	if tpl != TemplateStockAnalysis {
		return ForAudio(tpl)
	}
	record, ok := data.(models.StockRecord)
	if !ok {
		return "", fmt.Errorf("stock analysis template requires a stock record, got %T", data)
	}
	return FormatStockAnalysis(record)
}

var stockAnalysis = template.Must(
	template.New("stock_analysis").
		Funcs(template.FuncMap{"na": orPlaceholder}).
		Parse(stockAnalysisTemplate),
)

// FormatStockAnalysis renders the analysis instruction for a fetched
// stock record. Empty fields render as the placeholder.
func FormatStockAnalysis(record models.StockRecord) (string, error) {
	var out strings.Builder
	if err := stockAnalysis.Execute(&out, record); err != nil {
		return "", fmt.Errorf("render stock analysis prompt: %w", err)
	}
	return out.String(), nil
}

// ForAudio returns the fixed instruction for an audio use case.
// TemplateStockAnalysis is not an audio template.
func ForAudio(tpl Template) (string, error) {
	switch tpl {
	case TemplateSummary:
		return summaryTemplate, nil
	case TemplateTranscript:
		return transcriptTemplate, nil
	case TemplateActionPlan:
		return actionPlanTemplate, nil
	case TemplateMeetingMinutes:
		return meetingMinutesTemplate, nil
	default:
		return "", fmt.Errorf("%w: %s is not an audio use case", ErrUnknownTemplate, tpl)
	}
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}
