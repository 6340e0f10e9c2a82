package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bachat-dev/bachat/internal/model"
)

// RenderComparison renders a comparison result as a styled table with
// per-platform totals, coverage and the recommendation line. Estimated
// prices are marked with a tilde, missing cells with a dash.
func RenderComparison(result *model.ComparisonResult) string {
	platforms := model.AllPlatforms()

	headers := []string{"Item", "Qty"}
	for _, p := range platforms {
		headers = append(headers, strings.ToUpper(string(p)))
	}

	rows := make([][]string, 0, len(result.Items)+2)
	for _, item := range result.Items {
		row := []string{item.Item, item.Qty}
		for _, p := range platforms {
			row = append(row, formatCell(item, p))
		}
		rows = append(rows, row)
	}

	totalRow := []string{"TOTAL", ""}
	coverageRow := []string{"Found", ""}
	for _, p := range platforms {
		totalRow = append(totalRow, fmt.Sprintf("₹%.2f", result.Totals[p]))
		coverageRow = append(coverageRow, fmt.Sprintf("%d/%d", result.FoundCounts[p], len(result.Items)))
	}
	rows = append(rows, totalRow, coverageRow)

	widths := columnWidths(headers, rows)

	var b strings.Builder
	b.WriteString(renderRow(headers, widths, TableHeaderStyle, -1))
	b.WriteString("\n")

	bestCol := -1
	for i, p := range platforms {
		if p == result.BestPlatform {
			bestCol = i + 2
		}
	}

	for i, row := range rows {
		style := TableCellStyle
		if i >= len(rows)-2 {
			style = BoldStyle.PaddingRight(2)
		}
		b.WriteString(renderRow(row, widths, style, bestCol))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if result.HasRecommendation() {
		b.WriteString(FormatSuccess(result.Recommendation))
	} else {
		b.WriteString(FormatWarning(result.Recommendation))
	}

	return b.String()
}

// RenderStats renders cache statistics.
func RenderStats(total, estimated, captured int, perPlatform map[model.Platform]int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total entries:    %d\n", total))
	b.WriteString(fmt.Sprintf("Captured prices:  %d\n", captured))
	b.WriteString(fmt.Sprintf("Estimates:        %d\n", estimated))
	b.WriteString("\nCaptured by platform:\n")
	for _, p := range model.AllPlatforms() {
		b.WriteString(fmt.Sprintf("  %-12s %d\n", string(p), perPlatform[p]))
	}
	return b.String()
}

func formatCell(item model.ItemComparison, p model.Platform) string {
	price := item.Prices[p]
	if price == nil {
		return "-"
	}
	cell := fmt.Sprintf("₹%.2f", *price)
	if item.Metadata[p].IsEstimate {
		cell = "~" + cell
	}
	return cell
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func renderRow(cells []string, widths []int, style lipgloss.Style, bestCol int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		padded := fmt.Sprintf("%-*s", widths[i], cell)
		switch {
		case i == bestCol:
			parts[i] = BestStyle.PaddingRight(2).Render(padded)
		case strings.HasPrefix(cell, "~"):
			parts[i] = EstimateStyle.PaddingRight(2).Render(padded)
		default:
			parts[i] = style.Render(padded)
		}
	}
	// Header cells carry a bottom border, so compose as blocks
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
