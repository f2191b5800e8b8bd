package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// VariantResult is the input triple for aggregation: the planned variant (or
// the reason it was skipped), its build result, and its test outcomes.
type VariantResult struct {
	Kind       m.SanitizerKind
	Variant    *m.Variant
	SkipReason string
	Build      *m.BuildResult
	Outcomes   []m.TestOutcome
}

// ReportAggregator derives the unified report from per-variant results and
// renders it into the supported output formats. Rendering is a pure function
// of the report; it never re-runs anything.
type ReportAggregator interface {
	Aggregate(sourceDir m.Path, results []VariantResult) m.Report
	Render(report m.Report, formats []m.ReportFormat) (map[m.ReportFormat][]byte, error)
}

type reportAggregator struct{}

// NewReportAggregator constructs a ReportAggregator.
func NewReportAggregator() ReportAggregator {
	return &reportAggregator{}
}

// Aggregate computes the report. Build failures and test failures are counted
// separately; a skipped kind contributes no variant attempt and never counts
// against success.
func (a *reportAggregator) Aggregate(sourceDir m.Path, results []VariantResult) m.Report {
	report := m.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		SourceDir:   string(sourceDir),
		Variants:    make([]m.VariantReport, 0, len(results)),
	}

	for _, result := range results {
		variant := m.VariantReport{Kind: result.Kind, Tests: []m.TestReport{}}

		if result.Variant == nil {
			variant.Skipped = true
			variant.SkipReason = result.SkipReason
			report.Summary.SkippedVariants++
			report.Variants = append(report.Variants, variant)

			continue
		}

		variant.CompilerPath = string(result.Variant.Compiler.Path)
		variant.CompilerFamily = string(result.Variant.Compiler.Family)
		variant.BuildDir = string(result.Variant.BuildDir)

		if result.Build == nil || !result.Build.Succeeded {
			variant.BuildSucceeded = false
			if result.Build != nil {
				variant.BuildError = result.Build.ErrorDetail
			}

			report.Summary.BuildFailures++
			report.Variants = append(report.Variants, variant)

			continue
		}

		variant.BuildSucceeded = true

		for _, outcome := range result.Outcomes {
			variant.Tests = append(variant.Tests, m.TestReport{
				Name:     outcome.Name,
				Status:   outcome.Status.String(),
				Reason:   outcome.Reason,
				Duration: outcome.Duration,
			})

			if outcome.Status == m.TestPassed {
				variant.TestsPassed++
			} else {
				variant.TestsFailed++
			}
		}

		report.Summary.TestsPassed += variant.TestsPassed
		report.Summary.TestsFailed += variant.TestsFailed
		report.Variants = append(report.Variants, variant)
	}

	report.Summary.TotalVariants = len(report.Variants)
	report.Summary.Success = report.Summary.BuildFailures == 0 && report.Summary.TestsFailed == 0

	return report
}

// Render produces the requested documents from the report.
func (a *reportAggregator) Render(report m.Report, formats []m.ReportFormat) (map[m.ReportFormat][]byte, error) {
	documents := make(map[m.ReportFormat][]byte, len(formats))

	for _, format := range formats {
		var (
			content []byte
			err     error
		)

		switch format {
		case m.FormatText:
			content = []byte(renderText(report))
		case m.FormatJSON:
			content, err = json.MarshalIndent(report, "", "  ")
		case m.FormatHTML:
			content, err = renderHTML(report)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s report: %w", format, err)
		}

		documents[format] = content
	}

	return documents, nil
}

func renderText(report m.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sanitizer analysis report\n")
	fmt.Fprintf(&b, "Run %s, generated %s\n", report.RunID, report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Source: %s\n\n", report.SourceDir)

	for _, variant := range report.Variants {
		fmt.Fprintf(&b, "=== %s sanitizer ===\n", variant.Kind)

		switch {
		case variant.Skipped:
			fmt.Fprintf(&b, "skipped: %s\n\n", variant.SkipReason)
			continue
		case !variant.BuildSucceeded:
			fmt.Fprintf(&b, "compiler: %s (%s)\n", variant.CompilerPath, variant.CompilerFamily)
			fmt.Fprintf(&b, "build FAILED\n%s\n\n", variant.BuildError)
			continue
		}

		fmt.Fprintf(&b, "compiler: %s (%s)\n", variant.CompilerPath, variant.CompilerFamily)
		fmt.Fprintf(&b, "build ok, %d passed, %d failed\n", variant.TestsPassed, variant.TestsFailed)

		for _, test := range variant.Tests {
			if test.Reason != "" {
				fmt.Fprintf(&b, "  %s: %s (%s)\n", test.Name, test.Status, test.Reason)
			} else {
				fmt.Fprintf(&b, "  %s: %s\n", test.Name, test.Status)
			}
		}

		b.WriteString("\n")
	}

	b.WriteString(renderSummaryTable(report))

	return b.String()
}

func renderSummaryTable(report m.Report) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Sanitizer", "Build", "Passed", "Failed"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	for _, variant := range report.Variants {
		build := "ok"

		switch {
		case variant.Skipped:
			build = "skipped"
		case !variant.BuildSucceeded:
			build = "FAILED"
		}

		table.Append([]string{
			string(variant.Kind),
			build,
			fmt.Sprintf("%d", variant.TestsPassed),
			fmt.Sprintf("%d", variant.TestsFailed),
		})
	}

	verdict := "FAILED"
	if report.Summary.Success {
		verdict = "ok"
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d variants", report.Summary.TotalVariants),
		verdict,
		fmt.Sprintf("%d", report.Summary.TestsPassed),
		fmt.Sprintf("%d", report.Summary.TestsFailed),
	})

	table.Render()

	return tableBuffer.String()
}

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sanitizer analysis report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.metric { display: inline-block; margin-right: 2em; }
.metric b { font-size: 1.4em; }
.ok { color: #2a7d2a; }
.bad { color: #b02a2a; }
section { border-top: 1px solid #ccc; padding: 1em 0; }
pre { background: #f4f4f4; padding: 0.5em; overflow-x: auto; }
</style>
</head>
<body>
<h1>Sanitizer analysis report</h1>
<p>Run {{.RunID}}, generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<div>
<span class="metric"><b>{{.Summary.TotalVariants}}</b> variants</span>
<span class="metric"><b>{{.Summary.SkippedVariants}}</b> skipped</span>
<span class="metric"><b class="{{if .Summary.BuildFailures}}bad{{else}}ok{{end}}">{{.Summary.BuildFailures}}</b> build failures</span>
<span class="metric"><b class="ok">{{.Summary.TestsPassed}}</b> tests passed</span>
<span class="metric"><b class="{{if .Summary.TestsFailed}}bad{{else}}ok{{end}}">{{.Summary.TestsFailed}}</b> tests failed</span>
</div>
{{range .Variants}}
<section>
<h2>{{.Kind}} sanitizer</h2>
{{if .Skipped}}
<p>skipped: {{.SkipReason}}</p>
{{else if not .BuildSucceeded}}
<p class="bad">build failed ({{.CompilerPath}})</p>
<pre>{{.BuildError}}</pre>
{{else}}
<p>compiler: {{.CompilerPath}} ({{.CompilerFamily}})</p>
<ul>
{{range .Tests}}
<li class="{{if eq .Status "passed"}}ok{{else}}bad{{end}}">{{.Name}}: {{.Status}}{{if .Reason}} ({{.Reason}}){{end}}</li>
{{end}}
</ul>
{{end}}
</section>
{{end}}
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Parse(htmlReportTemplate))

func renderHTML(report m.Report) ([]byte, error) {
	var buffer bytes.Buffer

	if err := htmlReport.Execute(&buffer, report); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
