package courier

import (
	"context"
	"strconv"

	"github.com/spoken-corpus/anom-oral/controller"
	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/xuri/excelize/v2"
)

const (
	SHEET1     = "Sheet1"
	SPANSHEET  = "Spans"
	fontFamily = "Calibri"
)

// ExcelReport writes one row per document on Sheet1 and one row per
// anonymized span on Spans.
type ExcelReport struct {
	ctx         context.Context
	file        *excelize.File
	filepath    string
	headStyleId int
	kindStyleId map[controller.Kind]int
	lineNum     int
	spanNum     int
}

func NewExcelReport(ctx context.Context, filepath string) ExcelReport {
	var r ExcelReport
	r.ctx = ctx
	r.file = excelize.NewFile()
	r.filepath = filepath
	r.kindStyleId = make(map[controller.Kind]int)
	return r
}

// WriteXLSX saves the summary of a batch as a spreadsheet.
func WriteXLSX(ctx context.Context, summary controller.Summary, filepath string) *log.Status {
	r := NewExcelReport(ctx, filepath)
	defer r.file.Close()
	status := r.setStyle()
	if status != nil {
		return status
	}
	status = r.writeHeadings()
	if status != nil {
		return status
	}
	for _, outcome := range summary.Outcomes {
		status = r.generateLine(outcome)
		if status != nil {
			return status
		}
	}
	return r.writeFile()
}

func (r *ExcelReport) setStyle() *log.Status {
	var err error
	r.headStyleId, err = r.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: fontFamily, Bold: true, Color: "#000000"},
	})
	if err != nil {
		return log.Error(r.ctx, 500, err, "Failed to create new style.")
	}
	colors := map[controller.Kind]string{
		controller.Success: "#008000",
		controller.Skipped: "#B8860B",
		controller.Failed:  "#FF0000",
	}
	for kind, color := range colors {
		r.kindStyleId[kind], err = r.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Size: 12, Family: fontFamily, Color: color},
		})
		if err != nil {
			return log.Error(r.ctx, 500, err, "Failed to create new style.")
		}
	}
	_, err = r.file.NewSheet(SPANSHEET)
	if err != nil {
		return log.Error(r.ctx, 500, err, "Failed to create sheet", SPANSHEET)
	}
	_ = r.file.SetColWidth(SHEET1, "A", "A", 14)
	_ = r.file.SetColWidth(SHEET1, "B", "B", 30)
	_ = r.file.SetColWidth(SHEET1, "C", "C", 10)
	_ = r.file.SetColWidth(SHEET1, "D", "D", 8)
	_ = r.file.SetColWidth(SHEET1, "E", "E", 80)
	return nil
}

func (r *ExcelReport) writeHeadings() *log.Status {
	r.lineNum = 1
	for i, heading := range []string{"Document", "Source", "Outcome", "Status", "Message", "Spans", "Seconds", "Output"} {
		status := r.writeCell(SHEET1, i+1, r.lineNum, heading)
		if status != nil {
			return status
		}
	}
	r.spanNum = 1
	for i, heading := range []string{"Document", "Seq", "Code", "Start", "End", "Start sample", "End sample", "Peak"} {
		status := r.writeCell(SPANSHEET, i+1, r.spanNum, heading)
		if status != nil {
			return status
		}
	}
	_ = r.file.SetCellStyle(SHEET1, "A1", "H1", r.headStyleId)
	_ = r.file.SetCellStyle(SPANSHEET, "A1", "H1", r.headStyleId)
	return nil
}

func (r *ExcelReport) generateLine(outcome controller.Outcome) *log.Status {
	r.lineNum++
	status := 0
	message := ``
	if outcome.Status != nil {
		status = outcome.Status.Status
		message = outcome.Status.Error()
	}
	values := []any{outcome.DocID, outcome.Source, outcome.Kind.String(), status, message,
		len(outcome.Spans), outcome.Seconds, outcome.Output}
	for i, value := range values {
		st := r.writeCell(SHEET1, i+1, r.lineNum, value)
		if st != nil {
			return st
		}
	}
	cell := "C" + strconv.Itoa(r.lineNum)
	err := r.file.SetCellStyle(SHEET1, cell, cell, r.kindStyleId[outcome.Kind])
	if err != nil {
		return log.Error(r.ctx, 500, err, "Failed to set style for", cell)
	}
	for _, span := range outcome.Spans {
		r.spanNum++
		values = []any{outcome.DocID, span.Seq, span.Text, span.StartTS, span.EndTS,
			span.StartSample, span.EndSample, span.Peak}
		for i, value := range values {
			st := r.writeCell(SPANSHEET, i+1, r.spanNum, value)
			if st != nil {
				return st
			}
		}
	}
	return nil
}

func (r *ExcelReport) writeCell(sheet string, col int, row int, value any) *log.Status {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return log.Error(r.ctx, 500, err, "Invalid cell", col, row)
	}
	err = r.file.SetCellValue(sheet, cell, value)
	if err != nil {
		return log.Error(r.ctx, 500, err, "Unable to write cell.")
	}
	return nil
}

func (r *ExcelReport) writeFile() *log.Status {
	err := r.file.SaveAs(r.filepath)
	if err != nil {
		return log.Error(r.ctx, 500, err, "Failed to save report", r.filepath)
	}
	return nil
}
