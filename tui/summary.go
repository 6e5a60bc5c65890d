package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bassamadnan/mailfilter/processor"
	"github.com/bassamadnan/mailfilter/sheet"
)

const maxCellWidth = 40

// RenderSummary draws the records handled in this run and the outcome counters.
func RenderSummary(sum processor.Summary, dryRun bool) string {
	var b strings.Builder

	title := "Run summary"
	if dryRun {
		title += " (dry run, nothing written)"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	if len(sum.Records) > 0 {
		rows := make([][]string, 0, len(sum.Records))
		for _, rec := range sum.Records {
			row := rec.Row()
			for i := range row {
				row[i] = truncate(row[i], maxCellWidth)
			}
			rows = append(rows, row)
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(TableBorderStyle).
			Headers(sheet.Header...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return TableHeaderStyle
				}
				return TableCellStyle
			})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	counters := fmt.Sprintf("found %d  processed %d  skipped %d  failed %d",
		sum.Found, sum.Processed, sum.Skipped, sum.Failed)
	style := StatusSuccessStyle
	switch {
	case sum.Failed > 0:
		style = StatusErrorStyle
	case sum.Found == 0:
		style = StatusNormalStyle
	}
	b.WriteString(style.Render(counters))
	b.WriteString("\n")
	return b.String()
}
