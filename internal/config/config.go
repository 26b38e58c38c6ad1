// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"apiguard/internal/sdk"
)

// Config represents the configuration for apiguard
type Config struct {
	// General settings
	Version     string `yaml:"version" json:"version"`
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty"`

	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Platform version names
	SDK SDKConfig `yaml:"sdk" json:"sdk"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Rule-specific configurations
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// File patterns
	Files FilesConfig `yaml:"files" json:"files"`
}

type AnalysisConfig struct {
	// Compatibility score thresholds
	ScoreThresholds ScoreThresholds `yaml:"score_thresholds" json:"score_thresholds"`

	// Enable/disable entire categories
	EnabledCategories []string `yaml:"enabled_categories" json:"enabled_categories"`

	// Parallel analysis
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// Lowest API level the app installs on
	MinSdk int `yaml:"min_sdk" json:"min_sdk"`
}

type ScoreThresholds struct {
	Excellent int `yaml:"excellent" json:"excellent"` // >= 90
	Good      int `yaml:"good" json:"good"`           // >= 75
	Fair      int `yaml:"fair" json:"fair"`           // >= 50
	Poor      int `yaml:"poor" json:"poor"`           // < 50
}

type SDKConfig struct {
	// Extra or corrected VERSION_CODES entries, e.g. preview names
	VersionCodes map[string]int `yaml:"version_codes,omitempty" json:"version_codes,omitempty"`
}

type OutputConfig struct {
	// Default output format
	Format string `yaml:"format" json:"format"`

	// Colorized output
	Colors bool `yaml:"colors" json:"colors"`

	// Verbosity level
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Show suggestions
	ShowSuggestions bool `yaml:"show_suggestions" json:"show_suggestions"`

	// Output file path (optional)
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`

	// "stderr", "stdout" or file paths, separated by ';'
	Output string `yaml:"output" json:"output"`

	// Include caller location
	Caller bool `yaml:"caller" json:"caller"`
}

type RulesConfig struct {
	// Calls to APIs newer than min_sdk
	NewAPI NewAPIRule `yaml:"new_api" json:"new_api"`

	// Version checks that min_sdk already decides
	ObsoleteSdkInt ObsoleteSdkIntRule `yaml:"obsolete_sdk_int" json:"obsolete_sdk_int"`

	// Helper methods missing @ChecksSdkIntAtLeast
	AnnotateVersionCheck AnnotateVersionCheckRule `yaml:"annotate_version_check" json:"annotate_version_check"`
}

type NewAPIRule struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Required API level by method name or Receiver.method
	Requirements map[string]int `yaml:"requirements" json:"requirements"`

	// Skip calls inside declarations annotated @RequiresApi / @TargetApi
	HonorAnnotations bool `yaml:"honor_annotations" json:"honor_annotations"`
}

type ObsoleteSdkIntRule struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type AnnotateVersionCheckRule struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	PublicOnly bool `yaml:"public_only" json:"public_only"`
}

type FilesConfig struct {
	// Include patterns
	Include []string `yaml:"include" json:"include"`

	// Exclude patterns
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Whether to analyze test sources
	IncludeTests bool `yaml:"include_tests" json:"include_tests"`

	// Whether to follow symlinks
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`

	// Max file size (in KB)
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`
}

const (
	CategoryCompatibility = "compatibility"
	CategoryLint          = "lint"
)

var (
	validFormats    = []string{"console", "json"}
	validCategories = []string{CategoryCompatibility, CategoryLint}
	validLogLevels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
)

// highest min_sdk accepted by Validate
const maxMinSdk = 1000

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			ScoreThresholds: ScoreThresholds{
				Excellent: 90,
				Good:      75,
				Fair:      50,
				Poor:      0,
			},
			EnabledCategories: []string{CategoryCompatibility, CategoryLint},
			MaxWorkers:        4,
			MinSdk:            21,
		},
		Output: OutputConfig{
			Format:          "console",
			Colors:          true,
			Verbose:         false,
			ShowSuggestions: false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
		},
		Rules: RulesConfig{
			NewAPI: NewAPIRule{
				Enabled:          true,
				Requirements:     DefaultRequirements(),
				HonorAnnotations: true,
			},
			ObsoleteSdkInt: ObsoleteSdkIntRule{
				Enabled: true,
			},
			AnnotateVersionCheck: AnnotateVersionCheckRule{
				Enabled:    true,
				PublicOnly: false,
			},
		},
		Files: FilesConfig{
			Include:        []string{"**/*.java"},
			Exclude:        []string{"**/build/**", "**/.gradle/**", "**/generated/**", "**/node_modules/**"},
			IncludeTests:   false,
			FollowSymlinks: false,
			MaxFileSize:    1024, // 1MB
		},
	}
}

// DefaultRequirements lists well known platform APIs and the level that
// introduced them.
func DefaultRequirements() map[string]int {
	return map[string]int{
		"setElevation":                  21,
		"setTranslationZ":               21,
		"setStatusBarColor":             21,
		"setNavigationBarColor":         21,
		"checkSelfPermission":           23,
		"requestPermissions":            23,
		"setSustainedPerformanceMode":   24,
		"createNotificationChannel":     26,
		"startForegroundService":        26,
		"setTooltipText":                26,
		"setImportantForAutofill":       26,
		"LocalDate.now":                 26,
		"setForceDarkAllowed":           29,
		"setDecorFitsSystemWindows":     30,
		"registerScreenCaptureCallback": 34,
		"Objects.requireNonNull":        19,
		"Objects.equals":                19,
		"Instant.now":                   26,
		"setLayoutDirection":            17,
		"setBackgroundTintList":         21,
		"setCompoundDrawablesRelative":  17,
		"getOpPackageName":              29,
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	// If no config path provided, look for default config files
	if configPath == "" {
		configPath = findConfigFile()
	}

	// If still no config found, return default
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults

	// A requirements map in the file replaces the defaults rather than
	// merging into them.
	var raw struct {
		Rules struct {
			NewAPI struct {
				Requirements map[string]int `yaml:"requirements"`
			} `yaml:"new_api"`
		} `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if raw.Rules.NewAPI.Requirements != nil {
		config.Rules.NewAPI.Requirements = nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".apiguard.yml",
		".apiguard.yaml",
		"apiguard.yml",
		"apiguard.yaml",
		".config/apiguard.yml",
		".config/apiguard.yaml",
	}

	path, _ := lo.Find(possiblePaths, func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	return path
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	st := c.Analysis.ScoreThresholds
	if st.Excellent < st.Good || st.Good < st.Fair || st.Fair < st.Poor {
		return fmt.Errorf("score thresholds must be in descending order")
	}

	if !lo.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, validFormats)
	}

	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}

	if c.Analysis.MinSdk < 1 || c.Analysis.MinSdk > maxMinSdk {
		return fmt.Errorf("min_sdk must be between 1 and %d, got %d", maxMinSdk, c.Analysis.MinSdk)
	}

	if unknown := lo.Without(c.Analysis.EnabledCategories, validCategories...); len(unknown) > 0 {
		return fmt.Errorf("unknown categories: %s (valid: %v)", strings.Join(unknown, ", "), validCategories)
	}

	if c.Logging.Level != "" && !lo.Contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, validLogLevels)
	}

	for name, level := range c.Rules.NewAPI.Requirements {
		if level < 1 {
			return fmt.Errorf("requirement for %s must be a positive API level, got %d", name, level)
		}
	}

	for name, level := range c.SDK.VersionCodes {
		if level < 1 {
			return fmt.Errorf("version code %s must be a positive API level, got %d", name, level)
		}
	}

	if c.Files.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative")
	}

	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}

// IsRuleEnabled checks if a specific rule is enabled
func (c *Config) IsRuleEnabled(ruleType string) bool {
	switch ruleType {
	case "new_api":
		return c.categoryEnabled(CategoryCompatibility) && c.Rules.NewAPI.Enabled
	case "obsolete_sdk_int":
		return c.categoryEnabled(CategoryLint) && c.Rules.ObsoleteSdkInt.Enabled
	case "annotate_version_check":
		return c.categoryEnabled(CategoryLint) && c.Rules.AnnotateVersionCheck.Enabled
	default:
		return false
	}
}

func (c *Config) categoryEnabled(category string) bool {
	return lo.Contains(c.Analysis.EnabledCategories, category)
}

// Versions returns the version table with the configured overrides applied.
func (c *Config) Versions() *sdk.Table {
	return sdk.Default().WithOverrides(c.SDK.VersionCodes)
}

// Rating names the band a compatibility score falls in.
func (c *Config) Rating(score int) string {
	st := c.Analysis.ScoreThresholds
	switch {
	case score >= st.Excellent:
		return "excellent"
	case score >= st.Good:
		return "good"
	case score >= st.Fair:
		return "fair"
	default:
		return "poor"
	}
}
