package analyzer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"apiguard/internal/analyzer/detectors"
	"apiguard/internal/config"
	actx "apiguard/internal/context"
	"apiguard/internal/javasrc"
	"apiguard/internal/models"
)

type Analyzer struct {
	config    *config.Config
	ctx       *actx.AnalysisContext
	parser    *javasrc.Parser
	detectors []Detector
}

type Detector interface {
	Name() string
	Detect(file *javasrc.File, ctx *actx.AnalysisContext) []models.Issue
}

func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.DefaultConfig())
}

// NewAnalyzerWithConfig registers the detectors whose rules cfg enables.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx := actx.New(cfg)
	a := &Analyzer{
		config: cfg,
		ctx:    ctx,
		parser: javasrc.NewParser(ctx.Versions),
	}

	if cfg.IsRuleEnabled(string(models.IssueNewAPI)) {
		a.detectors = append(a.detectors, detectors.NewAPILevelDetector(cfg.Rules.NewAPI))
	}
	if cfg.IsRuleEnabled(string(models.IssueObsoleteSdkInt)) {
		a.detectors = append(a.detectors, detectors.NewObsoleteSdkIntDetector())
	}
	if cfg.IsRuleEnabled(string(models.IssueAnnotateVersionCheck)) {
		a.detectors = append(a.detectors, detectors.NewVersionHelperDetector(cfg.Rules.AnnotateVersionCheck))
	}

	return a
}

type fileResult struct {
	analyzed bool
	issues   []models.Issue
}

// AnalyzeFiles parses and checks filenames on up to max_workers goroutines.
// Files that cannot be read or exceed max_file_size are skipped with a
// warning. Results keep the order of filenames.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, filenames []string) (*models.AnalysisResult, error) {
	startTime := time.Now()
	result := models.NewAnalysisResult()
	result.MinSdk = a.ctx.MinSdk

	slots := make([]fileResult, len(filenames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.config.Analysis.MaxWorkers, 1))

	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			issues, err := a.analyzeFile(gctx, filename)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("file", filename).Msg("Skipping file")
				return nil
			}
			slots[i] = fileResult{analyzed: true, issues: issues}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, slot := range slots {
		if !slot.analyzed {
			continue
		}
		result.Files = append(result.Files, filenames[i])
		lo.ForEach(slot.issues, func(issue models.Issue, _ int) {
			result.AddIssue(issue)
		})
	}

	result.AnalysisDuration = time.Since(startTime).String()
	result.CalculateScore()
	log.Debug().
		Int("files", len(result.Files)).
		Int("issues", result.TotalIssues).
		Str("duration", result.AnalysisDuration).
		Msg("Analysis finished")
	return result, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, filename string) ([]models.Issue, error) {
	if limit := a.config.Files.MaxFileSize; limit > 0 {
		info, err := os.Stat(filename)
		if err != nil {
			return nil, err
		}
		if info.Size() > int64(limit)*1024 {
			return nil, fmt.Errorf("file is %d KB, larger than max_file_size %d KB", info.Size()/1024, limit)
		}
	}

	file, err := a.parser.ParseFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	if file.HasErrors {
		log.Warn().Str("file", filename).Msg("Syntax errors; results may be incomplete")
	}

	return a.AnalyzeFile(file), nil
}

// AnalyzeFile runs every detector over an already parsed file and returns
// the issues ordered by position.
func (a *Analyzer) AnalyzeFile(file *javasrc.File) []models.Issue {
	var allIssues []models.Issue
	for _, detector := range a.detectors {
		issues := detector.Detect(file, a.ctx)
		log.Trace().Str("detector", detector.Name()).Str("file", file.Path).Int("issues", len(issues)).Send()
		allIssues = append(allIssues, issues...)
	}

	sort.SliceStable(allIssues, func(i, j int) bool {
		return allIssues[i].Position().Before(allIssues[j].Position())
	})
	return allIssues
}

// Context exposes the shared analysis state, e.g. for single guard queries.
func (a *Analyzer) Context() *actx.AnalysisContext {
	return a.ctx
}

// Parser returns the parser configured with this analyzer's version table.
func (a *Analyzer) Parser() *javasrc.Parser {
	return a.parser
}

// GetDetectorCount returns the number of active detectors
func (a *Analyzer) GetDetectorCount() int {
	return len(a.detectors)
}

// GetDetectorNames returns the names of all active detectors
func (a *Analyzer) GetDetectorNames() []string {
	return lo.Map(a.detectors, func(d Detector, _ int) string {
		return d.Name()
	})
}
