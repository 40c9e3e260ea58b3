package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/descriptions"
	"github.com/a3tai/casedocs/internal/logging"
	"github.com/a3tai/casedocs/internal/pdf/form"
	"github.com/a3tai/casedocs/internal/render"
)

// ResourceScheme prefixes the URI of every returned document
const ResourceScheme = "casedocs://"

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *render.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *render.Service, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("render service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logging.OrNop(logger),
	}
	s.mcpServer.AddTools(s.tools()...)
	return s, nil
}

func caseOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("case_id",
			mcp.Description("Id of a stored case"),
		),
		mcp.WithObject("payload",
			mcp.Description("Case payload to render as-is instead of a stored case (object or JSON string)"),
		),
	}
}

func batchOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithArray("case_ids",
			mcp.Description("Ids of stored cases, in output order"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("payloads",
			mcp.Description("Case payloads to render as-is, in output order"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithBoolean("list_only",
			mcp.Description("Only render the summary table"),
		),
	}
}

func pageOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("format",
			mcp.Description("Paper size"),
			mcp.Enum("letter", "a4", "legal"),
		),
		mcp.WithBoolean("landscape",
			mcp.Description("Landscape orientation"),
		),
	}
}

func outputOption() mcp.ToolOption {
	return mcp.WithString("output",
		mcp.Description("Output format (default docx)"),
		mcp.Enum(string(render.OutputDOCX), string(render.OutputPDF)),
	)
}

func newTool(name string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription(name))}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return mcp.NewTool(name, opts...)
}

// tools lists every tool with its handler
func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: newTool("render_case_form", caseOptions()), Handler: s.handleRenderCaseForm},
		{Tool: newTool("render_case_report", caseOptions(), pageOptions()), Handler: s.handleRenderCaseReport},
		{
			Tool:    newTool("render_case_document", caseOptions(), []mcp.ToolOption{outputOption()}),
			Handler: s.handleRenderCaseDocument,
		},
		{Tool: newTool("render_batch_report", batchOptions(), pageOptions()), Handler: s.handleRenderBatchReport},
		{
			Tool:    newTool("render_batch_document", batchOptions(), []mcp.ToolOption{outputOption()}),
			Handler: s.handleRenderBatchDocument,
		},
		{Tool: newTool("render_batch_summary", batchOptions()), Handler: s.handleRenderBatchSummary},
		{Tool: newTool("provision_template"), Handler: s.handleProvisionTemplate},
		{Tool: newTool("server_info"), Handler: s.handleServerInfo},
	}
}

// Handler functions
func (s *Server) handleRenderCaseForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := caseRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.CaseForm(ctx, req)
	if err != nil {
		return s.toolError("render_case_form", err), nil
	}

	text := fmt.Sprintf("Rendered intake form: %s\n", result.Name)
	text += fmt.Sprintf("Mode: %s\n", result.Mode)
	if result.Mode == form.ModeForm {
		text += fmt.Sprintf("Fields written: %d\n", result.Written)
	}
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("Fields skipped: %s\n", strings.Join(result.Skipped, ", "))
	}
	text += fmt.Sprintf("Size: %d bytes\n", len(result.Data))
	return documentResult(text, result.Document), nil
}

func (s *Server) handleRenderCaseReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := caseRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.service.CaseReport(ctx, req)
	if err != nil {
		return s.toolError("render_case_report", err), nil
	}
	return documentResult(formatDocument("Rendered case report", doc), *doc), nil
}

func (s *Server) handleRenderCaseDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := caseRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output := render.OfficeOutput(request.GetString("output", string(render.OutputDOCX)))

	doc, err := s.service.CaseDocument(ctx, req, output)
	if err != nil {
		return s.toolError("render_case_document", err), nil
	}
	return documentResult(formatDocument("Rendered intake document", doc), *doc), nil
}

func (s *Server) handleRenderBatchReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := batchRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.BatchReport(ctx, req)
	if err != nil {
		return s.toolError("render_batch_report", err), nil
	}
	return documentResult(formatBatch("Rendered batch report", result), result.Document), nil
}

func (s *Server) handleRenderBatchDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := batchRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output := render.OfficeOutput(request.GetString("output", string(render.OutputDOCX)))

	result, err := s.service.BatchDocument(ctx, req, output)
	if err != nil {
		return s.toolError("render_batch_document", err), nil
	}
	return documentResult(formatBatch("Rendered batch document", result), result.Document), nil
}

func (s *Server) handleRenderBatchSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := batchRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.BatchSummary(ctx, req)
	if err != nil {
		return s.toolError("render_batch_summary", err), nil
	}
	return documentResult(formatBatch("Exported batch summary", result), result.Document), nil
}

func (s *Server) handleProvisionTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ProvisionTemplate(ctx)
	if err != nil {
		return s.toolError("provision_template", err), nil
	}

	var text string
	switch result.Status {
	case "created":
		text = fmt.Sprintf("Created fillable template: %s", result.FillablePath)
	case "exists":
		text = fmt.Sprintf("Fillable template already exists: %s", result.FillablePath)
	default:
		text = fmt.Sprintf("Base template missing, nothing provisioned (%s)", result.FillablePath)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.service.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

// Argument parsing

func caseRequest(request mcp.CallToolRequest) (render.CaseRequest, error) {
	args := request.GetArguments()
	req := render.CaseRequest{
		CaseID:    request.GetString("case_id", ""),
		Format:    request.GetString("format", ""),
		Landscape: request.GetBool("landscape", false),
	}
	if raw, ok := args["payload"]; ok && raw != nil {
		payload, err := decodePayload(raw)
		if err != nil {
			return req, fmt.Errorf("invalid payload: %w", err)
		}
		req.Payload = payload
	}
	if req.CaseID == "" && len(req.Payload) == 0 {
		return req, fmt.Errorf("either case_id or payload is required")
	}
	return req, nil
}

func batchRequest(request mcp.CallToolRequest) (render.BatchRequest, error) {
	args := request.GetArguments()
	req := render.BatchRequest{
		ListOnly:  request.GetBool("list_only", false),
		Format:    request.GetString("format", ""),
		Landscape: request.GetBool("landscape", false),
	}
	if raw, ok := args["case_ids"]; ok && raw != nil {
		ids, err := decodeIDs(raw)
		if err != nil {
			return req, fmt.Errorf("invalid case_ids: %w", err)
		}
		req.CaseIDs = ids
	}
	if raw, ok := args["payloads"]; ok && raw != nil {
		payloads, err := decodePayloads(raw)
		if err != nil {
			return req, fmt.Errorf("invalid payloads: %w", err)
		}
		req.Payloads = payloads
	}
	if len(req.CaseIDs) == 0 && len(req.Payloads) == 0 {
		return req, fmt.Errorf("either case_ids or payloads is required")
	}
	return req, nil
}

// decodePayload accepts a JSON object or a string holding one
func decodePayload(raw any) (casefile.Record, error) {
	switch v := raw.(type) {
	case map[string]any:
		return casefile.Record(v), nil
	case string:
		var record casefile.Record
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			return nil, err
		}
		return record, nil
	default:
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}
}

func decodePayloads(raw any) ([]casefile.Record, error) {
	if str, ok := raw.(string); ok {
		var list []any
		if err := json.Unmarshal([]byte(str), &list); err != nil {
			return nil, err
		}
		raw = list
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", raw)
	}
	records := make([]casefile.Record, 0, len(list))
	for i, item := range list {
		record, err := decodePayload(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// decodeIDs accepts strings and integral numbers; ids are compared as strings
func decodeIDs(raw any) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", raw)
	}
	ids := make([]string, 0, len(list))
	for i, item := range list {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("item %d: %v is not an integer id", i, v)
			}
			ids = append(ids, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("item %d: expected a string, got %T", i, item)
		}
	}
	return ids, nil
}

// Result formatting

func documentResult(text string, doc render.Document) *mcp.CallToolResult {
	return mcp.NewToolResultResource(text, mcp.BlobResourceContents{
		URI:      ResourceScheme + doc.Name,
		MIMEType: doc.ContentType,
		Blob:     base64.StdEncoding.EncodeToString(doc.Data),
	})
}

func formatDocument(title string, doc *render.Document) string {
	text := fmt.Sprintf("%s: %s\n", title, doc.Name)
	text += fmt.Sprintf("Content Type: %s\n", doc.ContentType)
	text += fmt.Sprintf("Size: %d bytes\n", len(doc.Data))
	return text
}

func formatBatch(title string, result *render.BatchResult) string {
	text := formatDocument(title, &result.Document)
	text += fmt.Sprintf("Cases: %d\n", result.Cases)
	return text
}

func (s *Server) formatServerInfoResult(result *render.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("🗄️  Case Store: %s\n", result.StoreKind)
	text += fmt.Sprintf("📄 Intake Template: %s\n", result.TemplateStatus)
	text += fmt.Sprintf("📏 Page Formats: %s (default %s)\n\n", strings.Join(result.PageFormats, ", "), result.DefaultFormat)

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over stdin/stdout until ctx is done
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in SSE mode", zap.String("address", addr))
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
