package models

import "apiguard/internal/tree"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

type IssueType string

const (
	IssueNewAPI               IssueType = "new_api"
	IssueObsoleteSdkInt       IssueType = "obsolete_sdk_int"
	IssueAnnotateVersionCheck IssueType = "annotate_version_check"
)

type Issue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	File        string    `json:"file"`
	Line        int       `json:"line"`
	Column      int       `json:"column"`
	Method      string    `json:"method,omitempty"`
	Message     string    `json:"message"`
	Suggestion  string    `json:"suggestion"`
	API         int       `json:"api,omitempty"` // API level the finding is about
	CodeSnippet string    `json:"code_snippet,omitempty"`
}

func (i *Issue) Position() tree.Pos {
	return tree.Pos{Line: i.Line, Column: i.Column}
}

type AnalysisResult struct {
	Files              []string       `json:"files_analyzed"`
	TotalIssues        int            `json:"total_issues"`
	IssuesBySeverity   map[string]int `json:"issues_by_severity"`
	Issues             []Issue        `json:"issues"`
	CompatibilityScore int            `json:"compatibility_score"` // 0-100 scale
	MinSdk             int            `json:"min_sdk"`
	AnalysisDuration   string         `json:"analysis_duration"`
}

func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Files:            make([]string, 0),
		Issues:           make([]Issue, 0),
		IssuesBySeverity: make(map[string]int),
	}
}

func (ar *AnalysisResult) AddIssue(issue Issue) {
	ar.Issues = append(ar.Issues, issue)
	ar.TotalIssues++
	ar.IssuesBySeverity[issue.Severity.String()]++
}

func (ar *AnalysisResult) CalculateScore() {
	if ar.TotalIssues == 0 {
		ar.CompatibilityScore = 100
		return
	}

	penalty := 0
	for _, issue := range ar.Issues {
		basePenalty := 0
		switch issue.Severity {
		case SeverityLow:
			basePenalty = 5
		case SeverityMedium:
			basePenalty = 15
		case SeverityHigh:
			basePenalty = 30
		case SeverityCritical:
			basePenalty = 50
		}

		switch issue.Type {
		case IssueNewAPI:
			basePenalty = int(float64(basePenalty) * 1.5) // crashes on older devices
		case IssueObsoleteSdkInt:
			basePenalty = int(float64(basePenalty) * 0.6)
		}

		penalty += basePenalty
	}

	ar.CompatibilityScore = max(100-penalty, 0)
}
