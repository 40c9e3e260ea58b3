package render

import (
	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/pdf/form"
)

// Content types of rendered documents
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Document kinds, used as filename prefixes
const (
	KindIntakeForm     = "intake-form"
	KindCaseReport     = "case-report"
	KindIntakeDocument = "intake-document"
	KindBatchReport    = "batch-report"
	KindBatchDocument  = "batch-document"
	KindBatchSummary   = "batch-summary"
)

// OfficeOutput selects the format of word-processor documents
type OfficeOutput string

const (
	OutputDOCX OfficeOutput = "docx"
	OutputPDF  OfficeOutput = "pdf"
)

// Document is a rendered document. It is generated per request and never
// cached.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// CaseRequest identifies one case by id or carries its payload
type CaseRequest struct {
	CaseID    string          `json:"case_id,omitempty"`
	Payload   casefile.Record `json:"payload,omitempty"`
	Format    string          `json:"format,omitempty"`
	Landscape bool            `json:"landscape,omitempty"`
}

// BatchRequest identifies several cases by id or carries their payloads
type BatchRequest struct {
	CaseIDs   []string          `json:"case_ids,omitempty"`
	Payloads  []casefile.Record `json:"payloads,omitempty"`
	ListOnly  bool              `json:"list_only,omitempty"`
	Format    string            `json:"format,omitempty"`
	Landscape bool              `json:"landscape,omitempty"`
}

// FormResult is a rendered intake form with the filling outcome
type FormResult struct {
	Document
	Mode    form.FillMode `json:"mode"`
	Written int           `json:"written"`
	Skipped []string      `json:"skipped,omitempty"`
}

// BatchResult is a rendered batch document
type BatchResult struct {
	Document
	Cases int `json:"cases"`
}

// ProvisionResult reports the provisioning step
type ProvisionResult struct {
	Status       string `json:"status"`
	FillablePath string `json:"fillable_path"`
}

// ToolInfo describes one exposed operation
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult describes the server and its operations
type ServerInfoResult struct {
	ServerName     string     `json:"server_name"`
	Version        string     `json:"version"`
	StoreKind      string     `json:"store_kind"`
	PageFormats    []string   `json:"page_formats"`
	DefaultFormat  string     `json:"default_format"`
	TemplateStatus string     `json:"template_status"`
	AvailableTools []ToolInfo `json:"available_tools"`
	UsageGuidance  string     `json:"usage_guidance"`
}
