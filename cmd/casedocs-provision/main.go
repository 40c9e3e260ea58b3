package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/logging"
	"github.com/a3tai/casedocs/internal/pdf/form"
)

// ProvisionReport is the outcome of one provisioning run
type ProvisionReport struct {
	BasePath     string      `json:"base_path"`
	FillablePath string      `json:"fillable_path"`
	Result       string      `json:"result"`
	FieldCount   int         `json:"field_count"`
	Fields       []FieldInfo `json:"fields,omitempty"`
	Missing      []string    `json:"missing,omitempty"`
	Error        string      `json:"error,omitempty"`
	ElapsedTime  string      `json:"elapsed_time,omitempty"`
}

// FieldInfo is one field found in the fillable template
type FieldInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type options struct {
	templateDir  string
	baseName     string
	fillableName string
	format       string
	force        bool
	verbose      bool
	help         bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := options{}
	fs := pflag.NewFlagSet("casedocs-provision", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.templateDir, "template-dir", config.DefaultTemplateDir, "Directory holding the intake templates")
	fs.StringVar(&opts.baseName, "base-template", config.DefaultBaseTemplate, "File name of the blank intake template")
	fs.StringVar(&opts.fillableName, "fillable-template", config.DefaultFillableTemplate, "File name of the fillable template to create")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.BoolVar(&opts.force, "force", false, "Recreate the fillable template even when it exists")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log provisioning steps to stderr")
	fs.BoolVar(&opts.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.help {
		printHelp(stdout, fs)
		return 0
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unknown format %q (must be text or json)\n", opts.format)
		return 2
	}

	logger := zap.NewNop()
	if opts.verbose {
		l, err := logging.New("debug", "console", "casedocs-provision")
		if err == nil {
			logger = l
			defer logger.Sync() //nolint:errcheck
		}
	}

	report := provision(context.Background(), opts, logger)
	if err := outputReport(stdout, report, opts.format); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return 1
	}
	if report.Error != "" || report.Result == form.ProvisionBaseMissing.String() {
		return 1
	}
	return 0
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "casedocs-provision - create the fillable intake template")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Adds the declared intake form fields to the blank base template and writes")
	fmt.Fprintln(w, "the result next to it. Existing fillable templates are left alone unless")
	fmt.Fprintln(w, "--force is given. The fields of the resulting template are listed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  casedocs-provision [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  casedocs-provision --template-dir ./templates")
	fmt.Fprintln(w, "  casedocs-provision --force --format json")
}

func provision(ctx context.Context, opts options, logger *zap.Logger) *ProvisionReport {
	start := time.Now()
	dir, err := filepath.Abs(opts.templateDir)
	if err != nil {
		return &ProvisionReport{Error: fmt.Sprintf("failed to get absolute path: %v", err)}
	}

	report := &ProvisionReport{
		BasePath:     filepath.Join(dir, opts.baseName),
		FillablePath: filepath.Join(dir, opts.fillableName),
	}
	defer func() { report.ElapsedTime = time.Since(start).String() }()

	if opts.force {
		if err := os.Remove(report.FillablePath); err != nil && !os.IsNotExist(err) {
			report.Error = fmt.Sprintf("failed to remove fillable template: %v", err)
			return report
		}
	}

	engine := form.NewPDFCPUEngine(logger)
	schema := form.IntakeSchema()
	provisioner := form.NewProvisioner(report.BasePath, report.FillablePath, engine, schema, logger)

	res, err := provisioner.Ensure(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Result = res.String()
	if res == form.ProvisionBaseMissing {
		return report
	}

	data, err := os.ReadFile(report.FillablePath)
	if err != nil {
		report.Error = fmt.Sprintf("failed to read fillable template: %v", err)
		return report
	}
	fields, err := engine.ListFields(data)
	if err != nil {
		report.Error = fmt.Sprintf("failed to list fields: %v", err)
		return report
	}

	found := make(map[string]bool, len(fields))
	for _, f := range fields {
		report.Fields = append(report.Fields, FieldInfo{Name: f.Name, Kind: f.Kind.String()})
		found[f.Name] = true
	}
	report.FieldCount = len(fields)
	for _, name := range schema.Names() {
		if !found[name] {
			report.Missing = append(report.Missing, name)
		}
	}
	return report
}

func outputReport(w io.Writer, report *ProvisionReport, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(w, "Base template:     %s\n", report.BasePath)
	fmt.Fprintf(w, "Fillable template: %s\n", report.FillablePath)
	if report.Error != "" {
		fmt.Fprintf(w, "❌ Error: %s\n", report.Error)
		return nil
	}

	switch report.Result {
	case form.ProvisionCreated.String():
		fmt.Fprintln(w, "✅ Fillable template created")
	case form.ProvisionExists.String():
		fmt.Fprintln(w, "ℹ️  Fillable template already exists")
	case form.ProvisionBaseMissing.String():
		fmt.Fprintln(w, "⚠️  Base template not found, nothing provisioned")
		return nil
	}

	fmt.Fprintf(w, "\nFields: %d\n", report.FieldCount)
	for i, f := range report.Fields {
		fmt.Fprintf(w, "%3d. %-28s %s\n", i+1, f.Name, f.Kind)
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(w, "\nDeclared fields not found in the template: %d\n", len(report.Missing))
		for _, name := range report.Missing {
			fmt.Fprintf(w, "  • %s\n", name)
		}
	}
	if report.ElapsedTime != "" {
		fmt.Fprintf(w, "\nCompleted in %s\n", report.ElapsedTime)
	}
	return nil
}
