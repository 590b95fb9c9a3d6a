package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/invoice-consolidator/internal/company"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// EnvPrefix prefixes every environment variable, e.g. INVOICE_WORKBOOK.
	EnvPrefix = "INVOICE"
)

// Config holds all configuration for the invoice consolidator
type Config struct {
	// Run configuration
	Mode     string // "cli" or "stdio"
	Workbook string
	Files    []string
	DebugRaw bool

	// InputDirectory bounds the files an MCP client may select.
	InputDirectory string

	// ConfigFile optionally supplies companies and filters.
	ConfigFile string
	Companies  []company.Keyword
	Filters    []company.Rule

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:           ModeCLI,
		DebugRaw:       true,
		InputDirectory: currentDir,
		Version:        "1.0.0",
		ServerName:     "invoice-consolidator",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// Positional arguments are the input files.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.Files = pflag.Args()

	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	if cfg.InputDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.InputDirectory); err == nil {
			cfg.InputDirectory = expandedPath
		}
	}
	if cfg.Workbook != "" {
		cfg.Workbook = workbookPath(cfg.Workbook)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.InputDirectory)
	viper.SetDefault("workbook", cfg.Workbook)
	viper.SetDefault("debug-raw", cfg.DebugRaw)
	viper.SetDefault("config", cfg.ConfigFile)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'cli' for a one-shot run, 'stdio' for an MCP server on standard I/O")
	pflag.StringP("workbook", "o", cfg.Workbook, "Master workbook to write (\".xlsx\" is appended when missing)")
	pflag.String("dir", cfg.InputDirectory, "Directory MCP clients may select input files from (stdio mode)")
	pflag.Bool("debug-raw", cfg.DebugRaw, "Save the unfiltered table of every input as <name>_RAW.xlsx")
	pflag.String("config", cfg.ConfigFile, "Optional config file with companies and filters (yaml, json or toml)")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum input file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{"mode", "workbook", "dir", "debug-raw", "config", "log-level", "max-file-size"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nInvoice Consolidator - extract invoice tables from PDF and Excel files into a master workbook\n\n")
		fmt.Fprintf(os.Stderr, "  %s [options] --workbook=<master.xlsx> <file>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -o master.xlsx Sanco_March.pdf Sanco_April.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --debug-raw=false -o master invoices/*.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/invoices\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_MODE           Run mode\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_WORKBOOK       Master workbook\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_DIR            Input directory\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_DEBUG_RAW      Save raw extraction copies\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_CONFIG         Config file\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_LOG_LEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_MAX_FILE_SIZE  Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Workbook = viper.GetString("workbook")
	cfg.InputDirectory = viper.GetString("dir")
	cfg.DebugRaw = viper.GetBool("debug-raw")
	cfg.ConfigFile = viper.GetString("config")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
}

// loadConfigFile reads the companies and filters tables from the optional
// config file.
func loadConfigFile(cfg *Config) error {
	if cfg.ConfigFile == "" {
		return nil
	}

	viper.SetConfigFile(cfg.ConfigFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", cfg.ConfigFile, err)
	}

	if err := viper.UnmarshalKey("companies", &cfg.Companies); err != nil {
		return fmt.Errorf("invalid companies in %s: %w", cfg.ConfigFile, err)
	}
	if err := viper.UnmarshalKey("filters", &cfg.Filters); err != nil {
		return fmt.Errorf("invalid filters in %s: %w", cfg.ConfigFile, err)
	}
	return nil
}

func workbookPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".xlsx"
	}
	return path
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	if c.Mode == ModeCLI {
		if c.Workbook == "" {
			return errors.New("a master workbook is required (--workbook)")
		}
		if len(c.Files) == 0 {
			return errors.New("at least one input file is required")
		}
	}

	if c.Workbook != "" && !strings.EqualFold(filepath.Ext(c.Workbook), ".xlsx") {
		return fmt.Errorf("master workbook must be an .xlsx file: %s", c.Workbook)
	}

	// The directory is not required to exist yet, so placeholder paths
	// from client configs still load.
	if c.Mode == ModeStdio && c.InputDirectory == "" {
		return errors.New("input directory cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	for i := range c.Filters {
		if err := c.Filters[i].Validate(); err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
	}
	for _, kw := range c.Companies {
		if kw.Keyword == "" || kw.Company == "" {
			return errors.New("company entries need both a keyword and a company")
		}
	}

	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if the tool runs as an MCP server on stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Workbook: %s, Files: %d, InputDirectory: %s, DebugRaw: %t, "+
		"ConfigFile: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Workbook, len(c.Files), c.InputDirectory, c.DebugRaw,
		c.ConfigFile, c.LogLevel, c.MaxFileSize)
}
