package payroll

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Folha de Pagamento"

// ExportXlsx renders a payroll report as a spreadsheet for the coordinators
// who reconcile payments outside the app.
func ExportXlsx(report Report) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", fmt.Errorf("error creating payroll sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheet, "A", "A", 24)
	f.SetColWidth(exportSheet, "B", "C", 14)
	f.SetColWidth(exportSheet, "D", "F", 16)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("error creating header style: %w", err)
	}

	title := fmt.Sprintf("Folha de pagamento %v a %v",
		report.Start.Format("2006-01-02"), report.End.AddDate(0, 0, -1).Format("2006-01-02"))
	f.SetCellValue(exportSheet, "A1", title)
	f.MergeCell(exportSheet, "A1", "F1")
	f.SetCellStyle(exportSheet, "A1", "F1", headerStyle)

	headers := []string{"Trabalhador", "Tipo", "Unidades", "Fixo", "Por produção", "Total"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, "", err
		}
		f.SetCellValue(exportSheet, cell, h)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for i, entry := range report.Entries {
		row := i + 3
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), entry.Name)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), entry.PaymentType)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), entry.Units)
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), entry.FixedPay.InexactFloat64())
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), entry.UnitPay.InexactFloat64())
		f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), entry.Total.InexactFloat64())
	}

	totalRow := len(report.Entries) + 3
	f.SetCellValue(exportSheet, fmt.Sprintf("A%d", totalRow), "Total")
	f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), headerStyle)
	f.SetCellValue(exportSheet, fmt.Sprintf("F%d", totalRow), report.Total.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("error generating payroll spreadsheet: %w", err)
	}

	filename := fmt.Sprintf("folha_%v.xlsx", report.Start.Format("2006_01"))
	return buf, filename, nil
}
