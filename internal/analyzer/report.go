package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/pkg/config"
)

// ReportGenerator renders an analysis report in the configured format.
// Human and json output go to the writer; markdown goes to the report
// file with a confirmation line on the writer.
type ReportGenerator struct {
	format     string
	color      bool
	reportFile string
	out        io.Writer
}

func NewReportGenerator(output config.OutputConfig, out io.Writer) *ReportGenerator {
	return &ReportGenerator{
		format:     output.Format,
		color:      output.Color,
		reportFile: output.ReportFile,
		out:        out,
	}
}

func (g *ReportGenerator) Generate(report *Report) error {
	switch g.format {
	case config.FormatJSON:
		return g.writeJSON(report)
	case config.FormatMarkdown:
		return g.writeMarkdown(report)
	default:
		return g.writeHuman(report)
	}
}

func (g *ReportGenerator) writeJSON(report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	_, err = fmt.Fprintf(g.out, "%s\n", data)
	return err
}

// Report sections in display order. Each record lands in exactly one
// section; whole-file and by-name churn outrank plain edits, which
// outrank transitive helper impact.
var sections = []struct {
	title string
	tags  []types.ReasonTag
}{
	{"Added tests", []types.ReasonTag{types.ReasonFileAdded, types.ReasonTestAdded}},
	{"Removed tests", []types.ReasonTag{types.ReasonFileDeleted, types.ReasonTestRemoved}},
	{"Directly modified tests", []types.ReasonTag{types.ReasonDirectEdit}},
	{"Helper-impacted tests", []types.ReasonTag{types.ReasonHelperChange}},
}

func sectionIndex(record types.ImpactRecord) int {
	for i, section := range sections {
		for _, tag := range section.tags {
			if record.HasReason(tag) {
				return i
			}
		}
	}
	return len(sections) - 1
}

func (g *ReportGenerator) writeHuman(report *Report) error {
	title := lipgloss.NewStyle()
	section := lipgloss.NewStyle()
	dim := lipgloss.NewStyle()
	if g.color {
		title = title.Bold(true).Foreground(lipgloss.Color("205"))
		section = section.Bold(true).Foreground(lipgloss.Color("6"))
		dim = dim.Foreground(lipgloss.Color("8"))
	}

	fmt.Fprintf(g.out, "%s\n", title.Render(fmt.Sprintf("Commit %s: %s", report.Commit.Short, report.Commit.Subject)))
	fmt.Fprintf(g.out, "%s\n\n", dim.Render("author: "+report.Commit.Author))

	fmt.Fprintf(g.out, "%s\n", section.Render("Changed files"))
	for _, file := range report.Files {
		fmt.Fprintf(g.out, "  %-8s %s\n", file.Op, file.Path)
	}
	fmt.Fprintln(g.out)

	if len(report.Records) == 0 {
		fmt.Fprintln(g.out, "No impacted tests.")
		return nil
	}

	grouped := make([][]types.ImpactRecord, len(sections))
	for _, record := range report.Records {
		i := sectionIndex(record)
		grouped[i] = append(grouped[i], record)
	}

	for i, records := range grouped {
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(g.out, "%s\n", section.Render(sections[i].title))
		for _, record := range records {
			fmt.Fprintf(g.out, "  %s %s\n", displayName(record.Test), dim.Render(location(record.Test)))
			for _, reason := range record.Reasons {
				if reason.Tag == types.ReasonHelperChange {
					fmt.Fprintf(g.out, "      via %s (%s)\n", reason.HelperName, reason.HelperFile)
				}
			}
		}
		fmt.Fprintln(g.out)
	}

	table := tablewriter.NewWriter(g.out)
	table.SetHeader([]string{"Test", "File", "Lines", "Reasons"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})
	for _, record := range report.Records {
		table.Append([]string{
			displayName(record.Test),
			record.Test.File,
			fmt.Sprintf("%d-%d", record.Test.StartLine, record.Test.EndLine),
			reasonSummary(record.Reasons),
		})
	}
	table.SetFooter([]string{fmt.Sprintf("Total %d", len(report.Records)), "", "", ""})
	table.Render()
	return nil
}

func (g *ReportGenerator) writeMarkdown(report *Report) error {
	var b strings.Builder
	b.WriteString("# Test Impact Report\n\n")
	fmt.Fprintf(&b, "**Commit:** `%s` %s (%s)\n\n", report.Commit.Short, report.Commit.Subject, report.Commit.Author)

	b.WriteString("## Changed files\n\n")
	for _, file := range report.Files {
		fmt.Fprintf(&b, "- `%s` (%s)\n", file.Path, file.Op)
	}
	b.WriteString("\n")

	b.WriteString("## Impacted tests\n\n")
	if len(report.Records) == 0 {
		b.WriteString("None.\n")
	} else {
		b.WriteString("| Test | File | Lines | Reasons |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, record := range report.Records {
			fmt.Fprintf(&b, "| %s | `%s` | %d-%d | %s |\n",
				displayName(record.Test), record.Test.File,
				record.Test.StartLine, record.Test.EndLine,
				reasonSummary(record.Reasons))
		}
	}

	if err := os.WriteFile(g.reportFile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing markdown report: %w", err)
	}
	_, err := fmt.Fprintf(g.out, "Report saved to %s (%d impacted tests)\n", g.reportFile, len(report.Records))
	return err
}

// displayName marks low-confidence spans so a reader knows the line range
// is an end-of-file fallback.
func displayName(span types.Span) string {
	if span.LowConfidence {
		return span.Name + " (approx)"
	}
	return span.Name
}

func location(span types.Span) string {
	return fmt.Sprintf("%s:%d-%d", span.File, span.StartLine, span.EndLine)
}

func reasonSummary(reasons []types.Reason) string {
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		if reason.Tag == types.ReasonHelperChange {
			parts[i] = fmt.Sprintf("%s(%s@%s)", reason.Tag, reason.HelperName, reason.HelperFile)
		} else {
			parts[i] = string(reason.Tag)
		}
	}
	return strings.Join(parts, ", ")
}
