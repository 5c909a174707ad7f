package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brainboost/codesnap/code_analyzer"
	"github.com/brainboost/codesnap/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = "codesnap-config"

// Config represents the structure of the configuration file
type Config struct {
	Version            string         `mapstructure:"version"`
	AvoidFolders       []string       `mapstructure:"avoid_folders"`
	IncludeExtensions  []string       `mapstructure:"include_extensions"`
	KeyFiles           []string       `mapstructure:"key_files"`
	IgnorePatterns     []string       `mapstructure:"ignore_patterns"`
	ImportExtractor    string         `mapstructure:"import_extractor"`
	LanguageDetection  string         `mapstructure:"language_detection"`
	InternalNamespaces []string       `mapstructure:"internal_namespaces"`
	Log                logging.Config `mapstructure:"log"`
	GitHub             GitHubConfig   `mapstructure:"github"`
	Report             ReportConfig   `mapstructure:"report"`
}

// GitHubConfig configures the repository listing client.
type GitHubConfig struct {
	APIURL            string  `mapstructure:"api_url"`
	PerPage           int     `mapstructure:"per_page"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// ReportConfig configures where the batch report keeps its working files.
type ReportConfig struct {
	SourceDir    string `mapstructure:"source_dir"`
	SnapshotsDir string `mapstructure:"snapshots_dir"`
	SummaryFile  string `mapstructure:"summary_file"`
	PDFFile      string `mapstructure:"pdf_file"`
	ChartsDir    string `mapstructure:"charts_dir"`
	ChartTopN    int    `mapstructure:"chart_top_n"`
}

// CommonAvoidFolders are directory names never descended into.
var CommonAvoidFolders = []string{
	"node_modules", "venv", "env", "__pycache__", "site-packages", "myenv",
	"target", "bin", "build", "obj", "vendor",
}

// KeyFiles are build manifests included regardless of their extension.
var KeyFiles = []string{
	"Dockerfile", ".dockerignore",
	"package.json", "requirements.txt", "Pipfile", "composer.json", "Gemfile",
	"build.gradle", "pom.xml", "Cargo.toml", "Makefile",
}

// FrameworkExtensions extend the language table with framework specific
// suffixes (templates, notebooks, properties files).
var FrameworkExtensions = []string{
	".properties", ".html.erb", ".js.erb", ".blade.php", ".cshtml", ".vbhtml",
	".ipynb", ".pas", ".dpr", ".dfm", ".ml", ".mli",
}

// InternalNamespaces mark organisation-owned packages; imports containing any
// of them are left out of external library counts.
var InternalNamespaces = []string{
	"com_goldenthinker_", "brainboost", "goldenthinker", "smartband",
	"papitomarket", "pelucadorada", "formate",
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:            "1.0.0",
	AvoidFolders:       CommonAvoidFolders,
	IncludeExtensions:  DefaultIncludeExtensions(),
	KeyFiles:           KeyFiles,
	ImportExtractor:    code_analyzer.ExtractorRegex,
	LanguageDetection:  code_analyzer.DetectFirst,
	InternalNamespaces: InternalNamespaces,
	Log:                logging.DefaultConfig(),
	GitHub: GitHubConfig{
		APIURL:            "https://api.github.com",
		PerPage:           100,
		RequestsPerSecond: 5,
	},
	Report: ReportConfig{
		SourceDir:    "source_code_for_analysis",
		SnapshotsDir: "snapshots",
		SummaryFile:  "overall_summary.json",
		PDFFile:      "github_user_report.pdf",
		ChartsDir:    "tmp",
		ChartTopN:    15,
	},
}

// DefaultIncludeExtensions returns every extension of the language table
// followed by the framework suffixes, without duplicates.
func DefaultIncludeExtensions() []string {
	exts := code_analyzer.AllExtensions()
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		seen[ext] = struct{}{}
	}
	for _, ext := range FrameworkExtensions {
		if _, ok := seen[ext]; !ok {
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	return exts
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CODESNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := cfgFile
	if path == "" {
		path = findConfigFile(cwd)
	}
	if path != "" {
		if err := readConfigFile(v, path); err != nil {
			return nil, err
		}
	}

	if rootCmd != nil {
		bindFlags(v, rootCmd)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.ImportExtractor {
	case code_analyzer.ExtractorRegex, code_analyzer.ExtractorTreeSitter:
	default:
		return fmt.Errorf("invalid import_extractor %q (use %q or %q)", c.ImportExtractor, code_analyzer.ExtractorRegex, code_analyzer.ExtractorTreeSitter)
	}
	switch c.LanguageDetection {
	case code_analyzer.DetectFirst, code_analyzer.DetectMajority:
	default:
		return fmt.Errorf("invalid language_detection %q (use %q or %q)", c.LanguageDetection, code_analyzer.DetectFirst, code_analyzer.DetectMajority)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

// findConfigFile looks for codesnap-config.{yml,yaml,json} in cwd.
func findConfigFile(cwd string) string {
	for _, ext := range []string{".yml", ".yaml", ".json"} {
		path := filepath.Join(cwd, configName+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("avoid_folders", DefaultConfig.AvoidFolders)
	v.SetDefault("include_extensions", DefaultConfig.IncludeExtensions)
	v.SetDefault("key_files", DefaultConfig.KeyFiles)
	v.SetDefault("ignore_patterns", []string{})
	v.SetDefault("import_extractor", DefaultConfig.ImportExtractor)
	v.SetDefault("language_detection", DefaultConfig.LanguageDetection)
	v.SetDefault("internal_namespaces", DefaultConfig.InternalNamespaces)
	v.SetDefault("log.level", DefaultConfig.Log.Level)
	v.SetDefault("log.format", DefaultConfig.Log.Format)
	v.SetDefault("log.file", DefaultConfig.Log.File)
	v.SetDefault("log.max_size_mb", DefaultConfig.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", DefaultConfig.Log.MaxBackups)
	v.SetDefault("log.max_age_days", DefaultConfig.Log.MaxAgeDays)
	v.SetDefault("github.api_url", DefaultConfig.GitHub.APIURL)
	v.SetDefault("github.per_page", DefaultConfig.GitHub.PerPage)
	v.SetDefault("github.requests_per_second", DefaultConfig.GitHub.RequestsPerSecond)
	v.SetDefault("report.source_dir", DefaultConfig.Report.SourceDir)
	v.SetDefault("report.snapshots_dir", DefaultConfig.Report.SnapshotsDir)
	v.SetDefault("report.summary_file", DefaultConfig.Report.SummaryFile)
	v.SetDefault("report.pdf_file", DefaultConfig.Report.PDFFile)
	v.SetDefault("report.charts_dir", DefaultConfig.Report.ChartsDir)
	v.SetDefault("report.chart_top_n", DefaultConfig.Report.ChartTopN)
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("log.level", flags.Lookup("log_level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log_format"))
	_ = v.BindPFlag("log.file", flags.Lookup("log_file"))
	_ = v.BindPFlag("import_extractor", flags.Lookup("import_extractor"))
	_ = v.BindPFlag("language_detection", flags.Lookup("language_detection"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML).")

	rootCmd.PersistentFlags().String("log_level", DefaultConfig.Log.Level, "Log level: 'debug', 'info', 'warn' or 'error'.")
	rootCmd.PersistentFlags().String("log_format", DefaultConfig.Log.Format, "Log format: 'text' or 'json'.")
	rootCmd.PersistentFlags().String("log_file", "", "Also write logs to this file (rotated).")
	rootCmd.PersistentFlags().String("import_extractor", DefaultConfig.ImportExtractor, "Import extraction strategy: 'regex' or 'treesitter'.")
	rootCmd.PersistentFlags().String("language_detection", DefaultConfig.LanguageDetection, "Primary language rule: 'first' (first classified file) or 'majority'.")
}

// readConfigFile loads path into v. The format follows the extension in any
// letter case; other names are read as YAML.
func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	configType := GetConfigFileType(path)
	if configType == "" {
		configType = "yaml"
	}
	v.SetConfigType(configType)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// GetConfigFileType maps a config file name to its viper format, or "" when
// the extension is not a supported one.
func GetConfigFileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}
