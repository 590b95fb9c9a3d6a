package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/a3tai/invoice-consolidator/internal/company"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "cli" {
		t.Errorf("Expected default mode to be 'cli', got '%s'", cfg.Mode)
	}

	if !cfg.DebugRaw {
		t.Error("Expected raw debug copies to be enabled by default")
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "invoice-consolidator" {
		t.Errorf("Expected default server name to be 'invoice-consolidator', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.InputDirectory != currentDir {
		t.Errorf("Expected default input directory to be '%s', got '%s'", currentDir, cfg.InputDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Mode:           "cli",
			Workbook:       "master.xlsx",
			Files:          []string{"Sanco_March.pdf"},
			InputDirectory: "/tmp/invoices",
			LogLevel:       "info",
			MaxFileSize:    1024,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid cli config",
			mutate: func(*Config) {},
		},
		{
			name: "valid stdio config without files",
			mutate: func(c *Config) {
				c.Mode = "stdio"
				c.Workbook = ""
				c.Files = nil
			},
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "server" },
			wantErr: "mode must be either 'cli' or 'stdio'",
		},
		{
			name:    "cli without workbook",
			mutate:  func(c *Config) { c.Workbook = "" },
			wantErr: "master workbook is required",
		},
		{
			name:    "cli without files",
			mutate:  func(c *Config) { c.Files = nil },
			wantErr: "at least one input file",
		},
		{
			name:    "workbook with wrong extension",
			mutate:  func(c *Config) { c.Workbook = "master.csv" },
			wantErr: "must be an .xlsx file",
		},
		{
			name: "stdio with empty directory",
			mutate: func(c *Config) {
				c.Mode = "stdio"
				c.InputDirectory = ""
			},
			wantErr: "input directory cannot be empty",
		},
		{
			name:    "invalid max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "invalid log level",
		},
		{
			name: "filter without columns",
			mutate: func(c *Config) {
				c.Filters = []company.Rule{{Company: "Dalton"}}
			},
			wantErr: "invalid filter",
		},
		{
			name: "company without keyword",
			mutate: func(c *Config) {
				c.Companies = []company.Keyword{{Company: "Dalton"}}
			},
			wantErr: "keyword and a company",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateFillsFilterLabels(t *testing.T) {
	cfg := &Config{
		Mode:        "stdio",
		LogLevel:    "info",
		MaxFileSize: 1024,
		Filters:     []company.Rule{{Company: "Dalton", Indices: []int{0, 26}}},
		// Relative placeholder directory is accepted as is.
		InputDirectory: "${workspaceRoot}",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error = %v", err)
	}

	got := strings.Join(cfg.Filters[0].Labels, ",")
	if got != "Col_A,Col_AA" {
		t.Errorf("Config.Validate() labels = %s, want Col_A,Col_AA", got)
	}
}

func TestConfigSlogLevel(t *testing.T) {
	tests := []struct {
		logLevel string
		want     slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("Config.SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigIsStdioMode(t *testing.T) {
	if !(&Config{Mode: "stdio"}).IsStdioMode() {
		t.Error("Config.IsStdioMode() = false for stdio mode")
	}
	if (&Config{Mode: "cli"}).IsStdioMode() {
		t.Error("Config.IsStdioMode() = true for cli mode")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:           "cli",
		Workbook:       "/data/master.xlsx",
		Files:          []string{"a.pdf", "b.xls"},
		InputDirectory: "/data",
		DebugRaw:       true,
		LogLevel:       "debug",
		MaxFileSize:    1024,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: cli",
		"Workbook: /data/master.xlsx",
		"Files: 2",
		"InputDirectory: /data",
		"DebugRaw: true",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}
