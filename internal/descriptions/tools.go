package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Single case tools
	RenderCaseFormDescription = `Render one case onto the official intake form PDF.

**When to use:** Need the filled intake form for a case, ready to print or file.

**Why it's useful:** Writes each known case field into the matching form field and flattens the result so it can no longer be edited. Templates without usable fields get the case text laid over the pages instead.

**Examples:**
• Print the intake form: "Render the intake form for case 42"
• Preview an unsaved case: "Render the intake form for this payload before saving it"

**Common workflows:**
1. Intake: save case → render_case_form → print → collect signatures
2. Review: edit payload → render_case_form with payload → check the layout

**Best practices:** Run provision_template once after replacing the base template. Fields that could not be written are listed in the response.`

	RenderCaseReportDescription = `Render one case as a formatted PDF report.

**When to use:** Need a readable summary of a case with its family, education, sacramental, agency, life skills and vital signs tables.

**Why it's useful:** Builds a styled report from the case and prints it through a headless browser. Empty values stay blank.

**Examples:**
• Case conference: "Render the case report for case 17 in A4"
• Landscape tables: "Render case 17's report in landscape"

**Common workflows:**
1. Conference prep: render_case_report → share PDF with the team
2. Audit: render_case_report for each case under review

**Best practices:** Use format letter, a4 or legal. Long tables continue across pages.`

	RenderCaseDocumentDescription = `Render one case as an editable Word intake document.

**When to use:** Need an intake document staff can still edit, or the same layout converted to PDF.

**Why it's useful:** Produces a DOCX with labelled sections, padded tables and signature lines. Missing values show as blank lines to fill in by hand.

**Examples:**
• Editable copy: "Render the intake document for case 8"
• PDF from the Word layout: "Render case 8's intake document as pdf"

**Common workflows:**
1. Hand completion: render_case_document → print → fill blanks on paper
2. Archival: render_case_document with output pdf → file the PDF

**Best practices:** PDF output needs the office converter installed on the server.`

	// Batch tools
	RenderBatchReportDescription = `Render several cases as one PDF report.

**When to use:** Need a combined report for a list of cases, or just the summary table.

**Why it's useful:** Fetches the cases concurrently, keeps them in the requested order and leaves out ids that no longer exist.

**Examples:**
• Weekly review: "Render a batch report for cases 7, 3 and 9"
• Roster: "Render a list-only batch report for all residential cases"

**Common workflows:**
1. Staff meeting: pick case ids → render_batch_report → distribute
2. Roster: render_batch_report with list_only → print the summary page

**Best practices:** Use list_only for large batches when only the summary table is needed.`

	RenderBatchDocumentDescription = `Render several cases as one Word document.

**When to use:** Need an editable combined document for a list of cases.

**Why it's useful:** Starts with a summary table and gives each case its own page.

**Examples:**
• Editable roster: "Render a batch document for cases 7, 3 and 9 with list_only"
• Combined PDF: "Render cases 7 and 3 as a batch document in pdf"

**Best practices:** PDF output needs the office converter installed on the server.`

	RenderBatchSummaryDescription = `Export a list of cases as a spreadsheet.

**When to use:** Need the case summary in a spreadsheet for sorting or filtering.

**Why it's useful:** One row per case with id, name, age, program, case type, assigned home and last update, header row frozen.

**Examples:**
• Program roster: "Export a summary spreadsheet of cases 1 through 20"

**Best practices:** Cases are written in the requested order; unknown ids are left out.`

	// Administrative tools
	ProvisionTemplateDescription = `Create the fillable intake template from the base template.

**When to use:** After installing or replacing the base intake PDF.

**Why it's useful:** Adds the declared form fields once and stores the result next to the base template. Running it again does nothing when the fillable template already exists.

**Best practices:** Delete the fillable template before provisioning when the base template changed.`

	ServerInfoDescription = `Get server information, configuration and the available tools.

**When to use:** Starting a session or checking which page formats, store and template are in use.

**Best practices:** Check template_status before rendering intake forms.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"render_case_form":      RenderCaseFormDescription,
	"render_case_report":    RenderCaseReportDescription,
	"render_case_document":  RenderCaseDocumentDescription,
	"render_batch_report":   RenderBatchReportDescription,
	"render_batch_document": RenderBatchDocumentDescription,
	"render_batch_summary":  RenderBatchSummaryDescription,
	"provision_template":    ProvisionTemplateDescription,
	"server_info":           ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
