package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"apiguard/internal/config"
	"apiguard/internal/models"
)

// ReportGenerator handles formatting and displaying analysis results
type ReportGenerator struct {
	format string
	config *config.Config
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(format string) *ReportGenerator {
	return &ReportGenerator{
		format: format,
		config: config.DefaultConfig(),
	}
}

func NewReportGeneratorWithConfig(cfg *config.Config) *ReportGenerator {
	return &ReportGenerator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from analysis results
func (r *ReportGenerator) Generate(result *models.AnalysisResult) string {
	switch r.format {
	case "json":
		return r.generateJSON(result)
	default:
		return r.generateConsole(result)
	}
}

func (r *ReportGenerator) generateJSON(result *models.AnalysisResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON report: %v", err)
	}
	return string(data)
}

func (r *ReportGenerator) generateConsole(result *models.AnalysisResult) string {
	var report strings.Builder

	useColors := true
	verbose := false
	showSuggestions := true

	if r.config != nil {
		useColors = r.config.Output.Colors
		verbose = r.config.Output.Verbose
		showSuggestions = r.config.Output.ShowSuggestions
	}

	if useColors {
		report.WriteString(color.CyanString("🔍 apiguard Compatibility Report\n"))
		report.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		report.WriteString("apiguard Compatibility Report\n")
		report.WriteString("=======================================\n\n")
	}

	if verbose && r.config != nil {
		r.writeConfigInfo(&report, useColors)
	}

	r.writeSummaryWithColors(&report, result, useColors)
	r.writeCompatibilityScore(&report, result, useColors)

	if len(result.Issues) > 0 {
		r.writeIssuesSummaryWithColors(&report, result, useColors)

		if showSuggestions {
			report.WriteString("\n")
			r.writeDetailedIssuesWithColors(&report, result, useColors)
		}
	} else {
		if useColors {
			report.WriteString(color.GreenString("🎉 No compatibility issues detected!\n\n"))
		} else {
			report.WriteString("No compatibility issues detected!\n\n")
		}
	}

	if useColors {
		report.WriteString(color.WhiteString("Analysis completed in %s\n", result.AnalysisDuration))
	} else {
		report.WriteString(fmt.Sprintf("Analysis completed in %s\n", result.AnalysisDuration))
	}

	return report.String()
}

// writeCompatibilityScore writes the score colored by its rating band
func (r *ReportGenerator) writeCompatibilityScore(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	score := result.CompatibilityScore
	cfg := r.config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var scoreColor func(a ...interface{}) string
	var emoji string
	switch cfg.Rating(score) {
	case "excellent":
		scoreColor = color.New(color.FgGreen).SprintFunc()
		emoji = "🌟"
	case "good":
		scoreColor = color.New(color.FgYellow).SprintFunc()
		emoji = "⚡"
	case "fair":
		scoreColor = color.New(color.FgHiYellow).SprintFunc()
		emoji = "⚠️"
	default:
		scoreColor = color.New(color.FgRed).SprintFunc()
		emoji = "🚨"
	}

	if useColors {
		scoreText := scoreColor(fmt.Sprintf("%d", score))
		report.WriteString(fmt.Sprintf("%s Compatibility Score: %s/100\n\n", emoji, scoreText))
	} else {
		report.WriteString(fmt.Sprintf("Compatibility Score: %d/100\n\n", score))
	}
}

// getSeverityDisplay returns emoji and color function for a severity level
func (r *ReportGenerator) getSeverityDisplay(severity string) (string, func(a ...interface{}) string) {
	switch severity {
	case "CRITICAL":
		return "🚨", color.New(color.FgRed, color.Bold).SprintFunc()
	case "HIGH":
		return "❌", color.New(color.FgRed).SprintFunc()
	case "MEDIUM":
		return "⚠️", color.New(color.FgYellow).SprintFunc()
	case "LOW":
		return "ℹ️", color.New(color.FgBlue).SprintFunc()
	default:
		return "❓", color.New(color.FgWhite).SprintFunc()
	}
}

func (r *ReportGenerator) writeConfigInfo(report *strings.Builder, useColors bool) {
	categories := strings.Join(r.config.Analysis.EnabledCategories, ", ")
	st := r.config.Analysis.ScoreThresholds
	if useColors {
		report.WriteString(color.WhiteString("📋 Configuration:\n"))
		report.WriteString(fmt.Sprintf("   Min SDK: %s\n", color.CyanString("%d", r.config.Analysis.MinSdk)))
		report.WriteString(fmt.Sprintf("   Enabled categories: %s\n", color.CyanString(categories)))
		report.WriteString(fmt.Sprintf("   Score thresholds: %s\n",
			color.CyanString("%d/%d/%d", st.Excellent, st.Good, st.Fair)))
	} else {
		report.WriteString("Configuration:\n")
		report.WriteString(fmt.Sprintf("   Min SDK: %d\n", r.config.Analysis.MinSdk))
		report.WriteString(fmt.Sprintf("   Enabled categories: %s\n", categories))
		report.WriteString(fmt.Sprintf("   Score thresholds: %d/%d/%d\n", st.Excellent, st.Good, st.Fair))
	}
	report.WriteString("\n")
}

func (r *ReportGenerator) writeSummaryWithColors(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📊 Summary:\n"))
	} else {
		report.WriteString("Summary:\n")
	}
	report.WriteString(fmt.Sprintf("   Files analyzed: %d\n", len(result.Files)))
	report.WriteString(fmt.Sprintf("   Min SDK: %d\n", result.MinSdk))
	report.WriteString(fmt.Sprintf("   Issues found: %d\n", result.TotalIssues))
	report.WriteString("\n")
}

func (r *ReportGenerator) writeIssuesSummaryWithColors(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📋 Issues by Severity:\n"))
	} else {
		report.WriteString("Issues by Severity:\n")
	}

	severities := []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}
	for _, severity := range severities {
		count := result.IssuesBySeverity[severity]
		if count == 0 {
			continue
		}
		if useColors {
			emoji, colorFunc := r.getSeverityDisplay(severity)
			countText := colorFunc(fmt.Sprintf("%d", count))
			report.WriteString(fmt.Sprintf("   %s %s: %s\n", emoji, severity, countText))
		} else {
			report.WriteString(fmt.Sprintf("   %s: %d\n", severity, count))
		}
	}
}

func (r *ReportGenerator) writeDetailedIssuesWithColors(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("\n🔍 Detailed Issues:\n"))
	} else {
		report.WriteString("\nDetailed Issues:\n")
	}
	report.WriteString(strings.Repeat("─", 50) + "\n\n")

	// Highest severity first, source order within a severity
	sortedIssues := make([]models.Issue, len(result.Issues))
	copy(sortedIssues, result.Issues)
	sort.SliceStable(sortedIssues, func(i, j int) bool {
		return sortedIssues[i].Severity > sortedIssues[j].Severity
	})

	for i, issue := range sortedIssues {
		r.writeIssueDetailWithColors(report, issue, i+1, useColors)
		report.WriteString("\n")
	}
}

func (r *ReportGenerator) writeIssueDetailWithColors(report *strings.Builder, issue models.Issue, index int, useColors bool) {
	paint := func(c *color.Color, format string, a ...interface{}) string {
		if useColors {
			return c.Sprintf(format, a...)
		}
		return fmt.Sprintf(format, a...)
	}
	icon := func(emoji string) string {
		return lo.Ternary(useColors, emoji+" ", "")
	}

	emoji, severityColor := r.getSeverityDisplay(issue.Severity.String())
	severity := issue.Severity.String()
	if useColors {
		severity = severityColor(severity)
	}
	report.WriteString(fmt.Sprintf("%sIssue #%d - %s %s\n",
		icon(emoji), index, severity, paint(color.New(color.FgWhite), "%s", strings.ToUpper(string(issue.Type)))))

	cyan := color.New(color.FgCyan)
	report.WriteString(paint(cyan, "   %sLocation: %s:%d:%d", icon("📍"), issue.File, issue.Line, issue.Column))
	if issue.Method != "" {
		report.WriteString(paint(cyan, " in method '%s'", issue.Method))
	}
	report.WriteString("\n")

	report.WriteString(paint(color.New(color.FgWhite), "   %sIssue: %s\n", icon("💭"), issue.Message))

	if issue.API > 0 {
		report.WriteString(paint(color.New(color.FgYellow), "   %sAPI level: %d\n", icon("📱"), issue.API))
	}
	if issue.CodeSnippet != "" {
		report.WriteString(paint(color.New(color.FgHiBlack), "   %sCode: %s\n", icon("📄"), issue.CodeSnippet))
	}

	green := color.New(color.FgGreen)
	report.WriteString(paint(green, "   %sSuggestion:\n", icon("💡")))
	for _, line := range strings.Split(issue.Suggestion, "\n") {
		if strings.TrimSpace(line) != "" {
			report.WriteString(paint(green, "      %s\n", strings.TrimSpace(line)))
		}
	}
}
