package usecase

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"student-profile-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

var exportHeaders = []string{
	"NAME", "EMAIL", "PROFESSION", "BATCH", "PHONE", "LINKEDIN",
	"EDUCATION", "EXPERIENCE", "SKILLS", "PROJECTS", "SKILL NAMES", "UPDATED AT",
}

// exportRow flattens one aggregate into the export columns.
func exportRow(p domain.ProfileAggregate) []interface{} {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return []interface{}{
		p.Name,
		p.Email,
		deref(p.Profession),
		deref(p.Batch),
		deref(p.Phone),
		deref(p.LinkedIn),
		len(p.Education),
		len(p.Experience),
		len(p.Skills),
		len(p.Projects),
		strings.Join(names, ", "),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func renderExport(profiles []domain.ProfileAggregate, format string, now time.Time) (*domain.ExportFile, error) {
	stamp := now.Format("20060102_150405")
	switch strings.ToLower(format) {
	case formatXLSX, "":
		data, err := exportExcel(profiles)
		if err != nil {
			return nil, err
		}
		return &domain.ExportFile{
			Filename:    fmt.Sprintf("student_profiles_%s.xlsx", stamp),
			ContentType: contentTypeXLSX,
			Data:        data,
		}, nil
	case formatCSV:
		data, err := exportCSV(profiles)
		if err != nil {
			return nil, err
		}
		return &domain.ExportFile{
			Filename:    fmt.Sprintf("student_profiles_%s.csv", stamp),
			ContentType: contentTypeCSV,
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportExcel(profiles []domain.ProfileAggregate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Profiles"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	// Dark blue header, white bold text
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, p := range profiles {
		for colIdx, value := range exportRow(p) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportHeaders {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func exportCSV(profiles []domain.ProfileAggregate) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		row := exportRow(p)
		record := make([]string, len(row))
		for i, v := range row {
			switch val := v.(type) {
			case int:
				record[i] = strconv.Itoa(val)
			case string:
				record[i] = csvSafe(val)
			default:
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}
	return buf.Bytes(), nil
}

// csvSafe keeps spreadsheet apps from evaluating user text as a formula.
func csvSafe(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
