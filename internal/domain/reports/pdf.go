package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the scorecard as a landscape A4 table.
func WritePDF(w io.Writer, sc Scorecard) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Performance Scorecard %d", sc.Year))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Plans: %s   Generated: %s", sc.Role, sc.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	widths := []float64{60, 70, 25, 25, 22, 15, 15, 15, 15}
	headers := []string{"KRA", "KPI", "Target", "Actual", "Achv %", "CEO", "Chief", "SU", "Min"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range sc.Rows {
		cells := []string{
			truncate(r.KRAName, 38),
			truncate(r.KPIName, 44),
			fmt.Sprintf("%.2f", r.Target),
			fmt.Sprintf("%.2f", r.Actual),
			fmt.Sprintf("%.2f", r.Achievement),
			fmt.Sprintf("%d/%d", r.Approved.CEO, r.Plans),
			fmt.Sprintf("%d/%d", r.Approved.ChiefCEO, r.Plans),
			fmt.Sprintf("%d/%d", r.Approved.Strategic, r.Plans),
			fmt.Sprintf("%d/%d", r.Approved.Minister, r.Plans),
		}
		for i, c := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(widths[0]+widths[1], 7, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.2f", sc.Target), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f", sc.Actual), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", sc.Achievement), "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
