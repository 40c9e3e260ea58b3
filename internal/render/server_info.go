package render

import (
	"fmt"
	"os"

	"github.com/a3tai/casedocs/internal/descriptions"
)

// Template states reported by ServerInfo
const (
	TemplateFillable       = "fillable"
	TemplateNotProvisioned = "not_provisioned"
)

// ServerInfo describes the server, its configuration and tools
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	status := TemplateNotProvisioned
	if s.templates != nil {
		if info, err := os.Stat(s.templates.FillablePath()); err == nil && !info.IsDir() {
			status = TemplateFillable
		}
	}

	return &ServerInfoResult{
		ServerName:     serverName,
		Version:        version,
		StoreKind:      s.storeKind,
		PageFormats:    []string{"letter", "a4", "legal"},
		DefaultFormat:  s.pageFormat,
		TemplateStatus: status,
		AvailableTools: availableTools(),
		UsageGuidance:  s.usageGuidance(),
	}
}

func availableTools() []ToolInfo {
	caseParams := "case_id (string) or payload (object or JSON string): the case to render"
	batchParams := "case_ids (array of strings) or payloads (array of objects), list_only (optional boolean)"
	pageParams := "format (optional): letter, a4 or legal, landscape (optional boolean)"

	return []ToolInfo{
		{
			Name:        "render_case_form",
			Description: descriptions.GetToolDescription("render_case_form"),
			Usage:       "Use this tool to get the filled, flattened intake form PDF of one case.",
			Parameters:  caseParams,
		},
		{
			Name:        "render_case_report",
			Description: descriptions.GetToolDescription("render_case_report"),
			Usage:       "Use this tool to get a formatted PDF report of one case.",
			Parameters:  caseParams + ", " + pageParams,
		},
		{
			Name:        "render_case_document",
			Description: descriptions.GetToolDescription("render_case_document"),
			Usage:       "Use this tool to get an editable Word intake document, or the same layout as PDF.",
			Parameters:  caseParams + ", output (optional): docx (default) or pdf",
		},
		{
			Name:        "render_batch_report",
			Description: descriptions.GetToolDescription("render_batch_report"),
			Usage:       "Use this tool to get one PDF report covering several cases.",
			Parameters:  batchParams + ", " + pageParams,
		},
		{
			Name:        "render_batch_document",
			Description: descriptions.GetToolDescription("render_batch_document"),
			Usage:       "Use this tool to get one Word document covering several cases.",
			Parameters:  batchParams + ", output (optional): docx (default) or pdf",
		},
		{
			Name:        "render_batch_summary",
			Description: descriptions.GetToolDescription("render_batch_summary"),
			Usage:       "Use this tool to export a list of cases as a spreadsheet.",
			Parameters:  batchParams,
		},
		{
			Name:        "provision_template",
			Description: descriptions.GetToolDescription("provision_template"),
			Usage:       "Use this tool once after installing or replacing the base intake template.",
			Parameters:  "No parameters required",
		},
		{
			Name:        "server_info",
			Description: descriptions.GetToolDescription("server_info"),
			Usage:       "Use this tool to get server information and available capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`Case Document Server Usage Guide:

1. Cases come from the %s store by case_id, or from a payload passed in the request.
2. Single case documents: render_case_form (official form), render_case_report (PDF report),
   render_case_document (Word, or PDF with output=pdf).
3. Batch documents keep the requested order and leave out ids that do not exist.
4. Reports default to %s paper; pass format and landscape to change that.
5. Documents are returned as embedded resources named <kind>-<case id or date>.<ext>.
6. Empty values are left blank in reports and shown as blank lines in Word documents.`,
		s.storeKind, s.pageFormat)
}
