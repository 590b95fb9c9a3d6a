package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/invoice-consolidator/internal/company"
	"github.com/a3tai/invoice-consolidator/internal/config"
	"github.com/a3tai/invoice-consolidator/internal/consolidate"
	"github.com/a3tai/invoice-consolidator/internal/mcp"
	"github.com/a3tai/invoice-consolidator/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. In stdio mode stdout carries the MCP
// protocol, so logs go to stderr and only when debug is enabled.
func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	w := stderr
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// newService wires detection, filtering and extraction from the config.
func newService(cfg *config.Config, logger *slog.Logger) (*consolidate.Service, error) {
	// Configured filters extend the defaults and win for the same company.
	registry, err := company.NewRegistry(append(company.DefaultRules(), cfg.Filters...)...)
	if err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}

	opts := consolidate.Options{
		DebugRaw:    cfg.DebugRaw,
		MaxFileSize: cfg.MaxFileSize,
	}
	return consolidate.NewService(opts, company.NewDetector(cfg.Companies), registry,
		pdf.NewExtractor(logger), logger), nil
}

// runCLI processes the files named on the command line and prints the
// completion report. It returns the process exit code.
func runCLI(ctx context.Context, cfg *config.Config, service *consolidate.Service, stdout, stderr io.Writer) int {
	session := consolidate.NewSession()
	if rejected := session.SelectFiles(cfg.Files); len(rejected) > 0 {
		for _, path := range rejected {
			fmt.Fprintf(stderr, "Skipping unsupported file: %s\n", path)
		}
	}
	session.SetWorkbook(cfg.Workbook)

	report, err := service.Run(ctx, session)
	if report != nil {
		fmt.Fprint(stdout, report.Summary())
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	logger.Debug("starting", "config", cfg.String())

	service, err := newService(cfg, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.IsStdioMode() {
		code := runCLI(ctx, cfg, service, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Invoice Consolidator\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
