package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"LIFT-backend/internal/timetracking"
)

// fpdfのコアフォントはCP1252のみ。UTF-8をそのまま渡すと化けるので変換して描く。
// 変換できない文字は'?'に置き換える。
func cp1252(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, _, err := transform.String(enc, s)
	if err != nil {
		return s
	}
	return out
}

func renderReportPDF(r ReportResponse) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, cp1252("Maintenance Report"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Report:      %s", r.ReportULID)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Date:        %s", r.ReportDate)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Elevator:    %s", r.ElevatorID)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Client:      %s", r.ClientULID)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Technician:  %s", r.TechnicianULID)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Status:      %s", r.Status)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 9, "Checklist")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 11)
	defects := 0
	for _, item := range r.Checklist {
		mark := "[ ]"
		switch item.Result {
		case ResultOK:
			mark = "[x]"
		case ResultDefect:
			mark = "[!]"
			defects++
		}
		line := fmt.Sprintf("%s  %s", mark, item.Label)
		if item.Remark != nil && *item.Remark != "" {
			line += fmt.Sprintf("  -  %s", *item.Remark)
		}
		pdf.MultiCell(0, 7, cp1252(line), "", "", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, cp1252(fmt.Sprintf("Defects found: %d", defects)))
	pdf.Ln(10)

	if r.Remarks != nil && *r.Remarks != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 9, "Remarks")
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 7, cp1252(*r.Remarks), "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderTimesheetPDF(technicianULID, from, to string, sessions []timetracking.SessionResponse) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, cp1252("Timesheet"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Technician:  %s", technicianULID)))
	pdf.Ln(6)
	pdf.Cell(0, 7, cp1252(fmt.Sprintf("Period:      %s - %s", from, to)))
	pdf.Ln(10)

	// テーブルヘッダ
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(28, 8, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(24, 8, "Clock in", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 8, "Clock out", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 8, "Worked", "1", 0, "R", false, 0, "")
	pdf.CellFormat(26, 8, "Breaks", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, "Note", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	totalWorked, totalBreak := 0, 0
	for _, s := range sessions {
		clockOut := "-"
		if s.ClockOut != nil {
			clockOut = s.ClockOut.Timestamp.Format("15:04")
		}
		note := ""
		if s.IncompleteData {
			note = "incomplete data"
		}
		pdf.CellFormat(28, 7, s.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(24, 7, s.ClockIn.Timestamp.Format("15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 7, clockOut, "1", 0, "C", false, 0, "")
		pdf.CellFormat(26, 7, formatMinutes(s.WorkedMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 7, formatMinutes(s.BreakMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 7, cp1252(note), "1", 1, "L", false, 0, "")

		totalWorked += s.WorkedMinutes
		totalBreak += s.BreakMinutes
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(76, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(26, 8, formatMinutes(totalWorked), "1", 0, "R", false, 0, "")
	pdf.CellFormat(26, 8, formatMinutes(totalBreak), "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, "", "1", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}
