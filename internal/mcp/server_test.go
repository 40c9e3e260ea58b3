package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/pdf/form"
	"github.com/a3tai/casedocs/internal/render"
	"github.com/a3tai/casedocs/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerIn(t, t.TempDir())
}

func newTestServerIn(t *testing.T, dir string) *Server {
	t.Helper()

	mem := store.NewMemory(nil)
	for _, r := range []casefile.Record{
		{"id": "7", "firstName": "Ana", "lastName": "Reyes"},
		{"id": "3", "firstName": "Ben", "lastName": "Cruz"},
	} {
		_, err := mem.Put(r)
		require.NoError(t, err)
	}

	engine := form.NewPDFCPUEngine(nil)
	provisioner := form.NewProvisioner(
		filepath.Join(dir, "intake_form.pdf"),
		filepath.Join(dir, "intake_form_fillable.pdf"),
		engine, form.IntakeSchema(), nil)

	svc := render.NewService(render.Components{
		Store:            mem,
		StoreKind:        config.StoreMemory,
		Templates:        provisioner,
		Filler:           form.NewFiller(engine, form.IntakeSchema(), nil, nil),
		FetchConcurrency: 2,
	})

	cfg := config.DefaultConfig()
	cfg.ServerName = "casedocs-test"
	s, err := NewServer(cfg, svc, nil)
	require.NoError(t, err)
	return s
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, tool := range s.tools() {
		if tool.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		result, err := tool.Handler(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, result)
		return result
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "first content is %T", result.Content[0])
	return text.Text
}

func resultBlob(t *testing.T, result *mcp.CallToolResult) mcp.BlobResourceContents {
	t.Helper()
	require.Len(t, result.Content, 2)
	embedded, ok := result.Content[1].(mcp.EmbeddedResource)
	require.True(t, ok, "second content is %T", result.Content[1])
	blob, ok := embedded.Resource.(mcp.BlobResourceContents)
	require.True(t, ok, "resource is %T", embedded.Resource)
	return blob
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(config.DefaultConfig(), nil, nil)
	assert.Error(t, err)

	s := newTestServer(t)
	assert.NotNil(t, s.mcpServer)

	var names []string
	for _, tool := range s.tools() {
		names = append(names, tool.Tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Tool.Description)
	}
	assert.Equal(t, []string{
		"render_case_form",
		"render_case_report",
		"render_case_document",
		"render_batch_report",
		"render_batch_document",
		"render_batch_summary",
		"provision_template",
		"server_info",
	}, names)
}

func TestToolSchemas(t *testing.T) {
	s := newTestServer(t)
	props := map[string][]string{}
	for _, tool := range s.tools() {
		for name := range tool.Tool.InputSchema.Properties {
			props[tool.Tool.Name] = append(props[tool.Tool.Name], name)
		}
	}

	assert.ElementsMatch(t, []string{"case_id", "payload"}, props["render_case_form"])
	assert.ElementsMatch(t, []string{"case_id", "payload", "format", "landscape"}, props["render_case_report"])
	assert.ElementsMatch(t, []string{"case_id", "payload", "output"}, props["render_case_document"])
	assert.ElementsMatch(t, []string{"case_ids", "payloads", "list_only", "format", "landscape"}, props["render_batch_report"])
	assert.Empty(t, props["server_info"])
}

func TestRenderCaseDocument(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		args     map[string]any
		wantName string
	}{
		{"stored case", map[string]any{"case_id": "7"}, "intake-document-7.docx"},
		{"payload object", map[string]any{"payload": map[string]any{"id": "55", "firstName": "Eve"}}, "intake-document-55.docx"},
		{"payload string", map[string]any{"payload": `{"id":"56","firstName":"Fay"}`}, "intake-document-56.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, "render_case_document", tt.args)
			require.False(t, result.IsError, resultText(t, result))

			assert.Contains(t, resultText(t, result), tt.wantName)
			blob := resultBlob(t, result)
			assert.Equal(t, ResourceScheme+tt.wantName, blob.URI)
			assert.Equal(t, render.ContentTypeDOCX, blob.MIMEType)

			data, err := base64.StdEncoding.DecodeString(blob.Blob)
			require.NoError(t, err)
			assert.Equal(t, "PK", string(data[:2]))
		})
	}
}

func TestRenderBatchSummary(t *testing.T) {
	s := newTestServer(t)

	result := callTool(t, s, "render_batch_summary", map[string]any{
		"case_ids": []any{"7", "404", float64(3)},
	})
	require.False(t, result.IsError, resultText(t, result))

	assert.Contains(t, resultText(t, result), "Cases: 2")
	blob := resultBlob(t, result)
	assert.Equal(t, render.ContentTypeXLSX, blob.MIMEType)
}

func TestToolErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{"missing case", "render_case_document", map[string]any{}, "case_id or payload is required"},
		{"bad payload", "render_case_document", map[string]any{"payload": "{not json"}, "invalid payload"},
		{"unknown case", "render_case_document", map[string]any{"case_id": "404"}, "INPUT_NOT_FOUND"},
		{"bad output", "render_case_document", map[string]any{"case_id": "7", "output": "odt"}, "INVALID_INPUT"},
		{"no converter", "render_case_document", map[string]any{"case_id": "7", "output": "pdf"}, "CONVERSION_FAILED"},
		{"no browser", "render_case_report", map[string]any{"case_id": "7"}, "RENDER_ENGINE_UNAVAILABLE"},
		{"bad format", "render_case_report", map[string]any{"case_id": "7", "format": "tabloid"}, "INVALID_INPUT"},
		{"no template", "render_case_form", map[string]any{"case_id": "7"}, "TEMPLATE_NOT_FOUND"},
		{"missing batch", "render_batch_report", map[string]any{}, "case_ids or payloads is required"},
		{"bad ids", "render_batch_summary", map[string]any{"case_ids": []any{true}}, "invalid case_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, s, tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.contains)
		})
	}
}

func TestProvisionTemplate_BaseMissing(t *testing.T) {
	s := newTestServer(t)

	result := callTool(t, s, "provision_template", nil)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Base template missing")
}

func TestServerInfo(t *testing.T) {
	s := newTestServer(t)

	text := resultText(t, callTool(t, s, "server_info", nil))
	assert.Contains(t, text, "casedocs-test")
	assert.Contains(t, text, "Case Store: memory")
	assert.Contains(t, text, "Intake Template: not_provisioned")
	assert.Contains(t, text, "render_batch_summary")
}

func TestDecodeArguments(t *testing.T) {
	ids, err := decodeIDs([]any{"a", float64(12)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "12"}, ids)

	_, err = decodeIDs("a,b")
	assert.Error(t, err)

	_, err = decodeIDs([]any{float64(7), 3.5})
	assert.ErrorContains(t, err, "item 1: 3.5 is not an integer id")

	records, err := decodePayloads(`[{"id":"1"},{"id":"2"}]`)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[1]["id"])

	_, err = decodePayloads([]any{map[string]any{"id": "1"}, 5})
	assert.ErrorContains(t, err, "item 1")

	record, err := decodePayload(map[string]any{"id": "9"})
	require.NoError(t, err)
	assert.Equal(t, casefile.Record{"id": "9"}, record)
}

func TestRenderCaseForm_ProvisionedTemplate(t *testing.T) {
	dir := t.TempDir()
	layout := `{"paper":"LetterP","origin":"LowerLeft","pages":{"1":{"content":{"text":[` +
		`{"value":"Client Intake Form","pos":[40,750],"font":{"name":"Helvetica","size":12}}]}}}}`
	var base bytes.Buffer
	require.NoError(t, api.Create(nil, bytes.NewReader([]byte(layout)), &base, model.NewDefaultConfiguration()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intake_form.pdf"), base.Bytes(), 0o644))

	s := newTestServerIn(t, dir)
	result := callTool(t, s, "render_case_form", map[string]any{"case_id": "7"})
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Mode: form")
	assert.Contains(t, text, "Fields written: 2")
	assert.NotContains(t, text, "Fields skipped")

	blob := resultBlob(t, result)
	assert.Equal(t, render.ContentTypePDF, blob.MIMEType)
	assert.Equal(t, ResourceScheme+"intake-form-7.pdf", blob.URI)
	assert.FileExists(t, filepath.Join(dir, "intake_form_fillable.pdf"))

	info := callTool(t, s, "server_info", nil)
	assert.Contains(t, resultText(t, info), "Intake Template: "+render.TemplateFillable)
}
