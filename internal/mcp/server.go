package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/invoice-consolidator/internal/config"
	"github.com/a3tai/invoice-consolidator/internal/consolidate"
	"github.com/a3tai/invoice-consolidator/internal/security"
)

// Server exposes a consolidation session as MCP tools. One session is shared
// by all tool calls; the tools mirror the file picker, the output picker and
// the run trigger of an interactive front end.
type Server struct {
	config    *config.Config
	service   *consolidate.Service
	paths     *security.PathValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu      sync.Mutex
	session *consolidate.Session
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *consolidate.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.InputDirectory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
		session:   consolidate.NewSession(),
	}

	if cfg.Workbook != "" {
		wb, err := paths.Resolve(cfg.Workbook)
		if err != nil {
			return nil, fmt.Errorf("master workbook: %w", err)
		}
		s.session.SetWorkbook(wb)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	loadFilesTool := mcp.NewTool(
		"load_files",
		mcp.WithDescription("Select the PDF, .xls and .xlsx invoice files to process. "+
			"Replaces the current selection; other file types are rejected."),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("File paths, absolute or relative to the input directory"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.mcpServer.AddTool(loadFilesTool, s.handleLoadFiles)

	setWorkbookTool := mcp.NewTool(
		"set_master_workbook",
		mcp.WithDescription("Choose the master .xlsx workbook that receives one sheet per company. "+
			"\".xlsx\" is appended when the name has no extension."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Workbook path, absolute or relative to the input directory"),
		),
	)
	s.mcpServer.AddTool(setWorkbookTool, s.handleSetMasterWorkbook)

	detectCompanyTool := mcp.NewTool(
		"detect_company",
		mcp.WithDescription("Show which company a file name maps to and whether a column filter exists for it"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File name or path"),
		),
	)
	s.mcpServer.AddTool(detectCompanyTool, s.handleDetectCompany)

	sessionInfoTool := mcp.NewTool(
		"session_info",
		mcp.WithDescription("Show the selected files, the master workbook and the known companies"),
	)
	s.mcpServer.AddTool(sessionInfoTool, s.handleSessionInfo)

	runTool := mcp.NewTool(
		"run_extraction",
		mcp.WithDescription("Process every selected file and write the filtered tables into the master workbook"),
	)
	s.mcpServer.AddTool(runTool, s.handleRunExtraction)
}

func (s *Server) handleLoadFiles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := stringSlice(request.GetArguments()["paths"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths cannot be empty"), nil
	}

	resolved, err := s.paths.ResolveAll(paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	rejected := s.session.SelectFiles(resolved)
	files := s.session.Files()
	s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Loaded %d file(s)\n", len(files))
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, f, s.service.Detector().Detect(f))
	}
	if len(rejected) > 0 {
		fmt.Fprintf(&b, "\nRejected %d file(s) with unsupported type (expected %s):\n",
			len(rejected), strings.Join(consolidate.SupportedExtensions, ", "))
		for _, f := range rejected {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSetMasterWorkbook(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.Resolve(consolidate.WorkbookPath(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.EqualFold(filepath.Ext(resolved), ".xlsx") {
		return mcp.NewToolResultError(fmt.Sprintf("master workbook must be an .xlsx file: %s", resolved)), nil
	}

	s.mu.Lock()
	s.session.SetWorkbook(resolved)
	s.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf("Master workbook set to: %s", resolved)), nil
}

func (s *Server) handleDetectCompany(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := s.service.Detector().Detect(path)
	text := fmt.Sprintf("File: %s\nCompany: %s\n", path, name)
	if rule, ok := s.service.Registry().Lookup(name); ok {
		text += fmt.Sprintf("Filter: columns %s (%s)\n", formatIndices(rule.Indices), strings.Join(rule.Labels, ", "))
	} else {
		text += "Filter: none, files for this company are skipped\n"
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSessionInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	files := s.session.Files()
	workbook := s.session.Workbook()
	s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Input directory: %s\n", s.paths.Root())
	if workbook == "" {
		b.WriteString("Master workbook: not set\n")
	} else {
		fmt.Fprintf(&b, "Master workbook: %s\n", workbook)
	}
	fmt.Fprintf(&b, "Raw debug copies: %t\n", s.config.DebugRaw)

	fmt.Fprintf(&b, "\nSelected files (%d):\n", len(files))
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}

	b.WriteString("\nCompanies with filters:\n")
	for _, name := range s.service.Registry().Companies() {
		rule, _ := s.service.Registry().Lookup(name)
		fmt.Fprintf(&b, "- %s: columns %s\n", name, formatIndices(rule.Indices))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRunExtraction(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.service.Run(ctx, s.session)
	if err != nil {
		if report != nil {
			return mcp.NewToolResultError(report.Summary() + "\nError: " + err.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(report.Summary()), nil
}

// Run serves the tools over stdio until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server on stdio",
		"name", s.config.ServerName, "input_directory", s.paths.Root())

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func stringSlice(v interface{}) ([]string, error) {
	switch vals := v.(type) {
	case nil:
		return nil, fmt.Errorf("required argument \"paths\" not found")
	case []string:
		return vals, nil
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("paths must contain only strings, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("paths must be an array of strings, got %T", v)
	}
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, ", ")
}
