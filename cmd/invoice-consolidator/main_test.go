package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/invoice-consolidator/internal/company"
	"github.com/a3tai/invoice-consolidator/internal/config"
	"github.com/a3tai/invoice-consolidator/internal/layout"
	"github.com/a3tai/invoice-consolidator/internal/spreadsheet"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	originalStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version = testVersion
	buildTime = "2024-03-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
		os.Stdout = originalStdout
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done

	output := buf.String()
	expectedStrings := []string{
		"Invoice Consolidator",
		"Version: " + testVersion,
		"Build Time: 2024-03-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		config     *config.Config
		wantOutput bool
	}{
		{
			name:       "cli mode logs info",
			config:     &config.Config{Mode: "cli", LogLevel: "info"},
			wantOutput: true,
		},
		{
			name:       "stdio mode is silent",
			config:     &config.Config{Mode: "stdio", LogLevel: "info"},
			wantOutput: false,
		},
		{
			name:       "stdio mode with debug logs",
			config:     &config.Config{Mode: "stdio", LogLevel: "debug"},
			wantOutput: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(tt.config, &buf).Info("hello", "file", "a.pdf")

			got := strings.Contains(buf.String(), "hello")
			if got != tt.wantOutput {
				t.Errorf("newLogger() wrote %q, want output %v", buf.String(), tt.wantOutput)
			}
		})
	}

	var buf bytes.Buffer
	newLogger(&config.Config{Mode: "cli", LogLevel: "warn"}, &buf).Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("newLogger() at warn level wrote info record: %q", buf.String())
	}
}

func TestNewService(t *testing.T) {
	logger := newLogger(&config.Config{Mode: "stdio"}, io.Discard)

	service, err := newService(&config.Config{}, logger)
	if err != nil {
		t.Fatalf("newService() unexpected error: %v", err)
	}
	if got := service.Registry().Companies(); len(got) != 1 || got[0] != "Sanco" {
		t.Errorf("newService() default companies = %v, want [Sanco]", got)
	}

	cfg := &config.Config{
		Companies: []company.Keyword{{Keyword: "acme", Company: "Acme"}},
		Filters:   []company.Rule{{Company: "Acme", Indices: []int{0, 2}}},
	}
	service, err = newService(cfg, logger)
	if err != nil {
		t.Fatalf("newService() unexpected error: %v", err)
	}
	if got := service.Detector().Detect("ACME-March.pdf"); got != "Acme" {
		t.Errorf("Detect() = %s, want Acme", got)
	}
	if got := service.Registry().Companies(); len(got) != 2 || got[1] != "Acme" {
		t.Errorf("configured filters should extend the defaults, got %v", got)
	}
	if _, err := service.Registry().Apply("Acme", layout.Table{{"a", "b", "c"}}); err != nil {
		t.Errorf("Apply() unexpected error: %v", err)
	}

	_, err = newService(&config.Config{Filters: []company.Rule{{Company: "Bad"}}}, logger)
	if err == nil {
		t.Error("newService() expected error for filter without columns")
	}
}

func TestRunCLI(t *testing.T) {
	dir := t.TempDir()

	table := make(layout.Table, 3)
	for r := range table {
		table[r] = make([]string, 50)
		for c := range table[r] {
			table[r][c] = "v"
		}
	}
	input := filepath.Join(dir, "Sanco_Invoice.xlsx")
	if err := spreadsheet.WriteRaw(input, table); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	cfg := &config.Config{
		Mode:     "cli",
		Workbook: filepath.Join(dir, "master.xlsx"),
		Files:    []string{input, filepath.Join(dir, "notes.txt")},
		DebugRaw: true,
		LogLevel: "info",
	}
	logger := newLogger(cfg, io.Discard)
	service, err := newService(cfg, logger)
	if err != nil {
		t.Fatalf("newService() unexpected error: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := runCLI(context.Background(), cfg, service, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("runCLI() = %d, stderr: %s", code, stderr.String())
	}

	for _, want := range []string{"Processed 1 file(s).", "Saved to: " + cfg.Workbook, "[Sanco] success (3 rows)"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("runCLI() output missing %q\n%s", want, stdout.String())
		}
	}
	if !strings.Contains(stderr.String(), "notes.txt") {
		t.Errorf("runCLI() should report the rejected file, got %q", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "Sanco_Invoice_RAW.xlsx")); err != nil {
		t.Errorf("raw copy not written: %v", err)
	}
}

func TestRunCLI_NoFiles(t *testing.T) {
	cfg := &config.Config{Mode: "cli", Workbook: filepath.Join(t.TempDir(), "master.xlsx"), Files: []string{"a.txt"}}
	service, err := newService(cfg, newLogger(cfg, io.Discard))
	if err != nil {
		t.Fatalf("newService() unexpected error: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := runCLI(context.Background(), cfg, service, &stdout, &stderr); code != 1 {
		t.Errorf("runCLI() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "no files loaded") {
		t.Errorf("runCLI() stderr = %q", stderr.String())
	}
}
