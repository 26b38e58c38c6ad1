package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"apiguard/internal/analyzer"
	"apiguard/internal/config"
	"apiguard/internal/logging"
	"apiguard/internal/watcher"
)

var (
	formatFlag         string
	watchFlag          bool
	configFlag         string
	generateConfigFlag bool
	minSdkFlag         int
	verboseFlag        bool
	logLevelFlag       string

	logClosers []io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apiguard [files or directories]",
	Short: "Finds Android API calls that are not protected by an SDK_INT check",
	Long: `apiguard scans Java sources of an Android app for calls to platform APIs
newer than the app's minimum SDK that run without a Build.VERSION.SDK_INT
guard. It also reports version checks the minimum SDK makes redundant and
helper methods that should carry @ChecksSdkIntAtLeast.

Examples:
  apiguard .                               # Analyze current directory
  apiguard app/src/main/java               # Analyze one source set
  apiguard --min-sdk=23 .                  # Override min_sdk from config
  apiguard --format=json .                 # Output results in JSON format
  apiguard --config=.apiguard.yml .        # Use custom config
  apiguard --generate-config               # Generate sample config file
  apiguard guard Main.java:42 --api 26     # Ask whether one line is guarded`,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		for _, c := range logClosers {
			_ = c.Close()
		}
	},
	Run: runAnalysis,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("%v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().IntVar(&minSdkFlag, "min-sdk", 0, "Minimum SDK level of the app (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "console", "Output format (console, json)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch mode for development")
	rootCmd.Flags().BoolVar(&generateConfigFlag, "generate-config", false, "Generate sample configuration file")
}

// loadConfig reads the configuration file and applies command line
// overrides on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		cfg.Output.Format = formatFlag
	}
	if cmd.Flags().Changed("min-sdk") {
		cfg.Analysis.MinSdk = minSdkFlag
	}
	if verboseFlag {
		cfg.Output.Verbose = true
		cfg.Output.ShowSuggestions = true
		cfg.Logging.Caller = true
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		// reported again by the command itself
		cfg = config.DefaultConfig()
	}
	logClosers, err = logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Caller: cfg.Logging.Caller,
	})
	return err
}

func runAnalysis(cmd *cobra.Command, args []string) {
	if generateConfigFlag {
		generateConfig()
		return
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		color.Red("%v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	var javaFiles []string
	for _, arg := range args {
		files, err := cfg.Files.Collect(arg)
		if err != nil {
			color.Red("Error collecting files from %s: %v\n", arg, err)
			continue
		}
		javaFiles = append(javaFiles, files...)
	}

	if len(javaFiles) == 0 {
		color.Yellow("⚠️  No Java files found to analyze\n")
		return
	}

	analyzerEngine := analyzer.NewAnalyzerWithConfig(cfg)
	reportGen := analyzer.NewReportGeneratorWithConfig(cfg)

	if cfg.Output.Verbose {
		color.Cyan("🔍 Analyzing %d Java files with %d detectors (min SDK %d)...\n",
			len(javaFiles), analyzerEngine.GetDetectorCount(), cfg.Analysis.MinSdk)
		if configFlag != "" {
			color.Cyan("📋 Using configuration: %s\n", configFlag)
		}
		color.Cyan("🎯 Enabled categories: %s\n\n", strings.Join(cfg.Analysis.EnabledCategories, ", "))
	} else if cfg.Output.Format != "json" {
		color.Cyan("🔍 Analyzing %d Java files...\n\n", len(javaFiles))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := analyzerEngine.AnalyzeFiles(ctx, javaFiles)
	if err != nil {
		color.Red("Analysis failed: %v\n", err)
		os.Exit(1)
	}

	emitReport(cfg, reportGen.Generate(result))

	if watchFlag {
		if err := watch(ctx, cfg, args, analyzerEngine, reportGen); err != nil {
			color.Red("Watch mode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !cfg.Output.Colors && result.CompatibilityScore < cfg.Analysis.ScoreThresholds.Fair {
		os.Exit(1)
	}
}

// watch re-analyzes changed files until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, paths []string,
	engine *analyzer.Analyzer, reportGen *analyzer.ReportGenerator) error {
	fw, err := watcher.NewFileWatcher(cfg)
	if err != nil {
		return err
	}
	defer fw.Close()

	handler := func(files []string) error {
		color.Cyan("\n🔄 %d file(s) changed, re-analyzing...\n\n", len(files))
		result, err := engine.AnalyzeFiles(ctx, files)
		if err != nil {
			return err
		}
		emitReport(cfg, reportGen.Generate(result))
		return nil
	}
	if err := fw.Watch(paths, handler); err != nil {
		return err
	}

	log.Info().Int("dirs", len(fw.GetWatchedPaths())).Msg("Watching for changes")
	color.Cyan("👀 Watching for changes (Ctrl+C to stop)...\n")
	<-ctx.Done()
	return nil
}

func emitReport(cfg *config.Config, report string) {
	if cfg.Output.OutputFile == "" {
		fmt.Print(report)
		return
	}
	if err := writeReportToFile(report, cfg.Output.OutputFile); err != nil {
		color.Red("Failed to write report to file: %v\n", err)
		return
	}
	color.Green("📄 Report saved to: %s\n", cfg.Output.OutputFile)
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig() {
	configPath := ".apiguard.yml"
	if err := config.GenerateConfig(configPath); err != nil {
		color.Red("Failed to generate config file: %v\n", err)
		os.Exit(1)
	}
	color.Green("✅ Generated sample configuration file: %s\n", configPath)
	color.Cyan("📝 Set analysis.min_sdk and rules.new_api.requirements for your app\n")
	color.Cyan("🚀 Run 'apiguard --config=%s .' to use it\n", configPath)
}
