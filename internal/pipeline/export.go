package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"climbrank/internal"
	"climbrank/internal/util"
)

const rankingsSheet = "Rankings"

func recordCells(r internal.ClimbRecord) []any {
	return []any{r.Rank, r.Name, r.LengthKm, r.GradientPct, r.DifficultyPoints, r.ElevationGainM, r.Page}
}

func WriteCSV(w io.Writer, records []internal.ClimbRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(internal.RecordColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Rank),
			r.Name,
			util.FormatFloat(r.LengthKm),
			util.FormatFloat(r.GradientPct),
			strconv.Itoa(r.DifficultyPoints),
			strconv.Itoa(r.ElevationGainM),
			strconv.Itoa(r.Page),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func buildWorkbook(records []internal.ClimbRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), rankingsSheet); err != nil {
		return nil, err
	}

	for i, h := range internal.RecordColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(rankingsSheet, cell, h)
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := recordCells(r)
		if err := f.SetSheetRow(rankingsSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func WriteXLSX(w io.Writer, records []internal.ClimbRecord) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func ExportRecordsToXLSX(records []internal.ClimbRecord, outputPath string) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportRecords writes CSV or XLSX depending on the file extension.
func ExportRecords(records []internal.ClimbRecord, outputPath string) error {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".xlsx":
		return ExportRecordsToXLSX(records, outputPath)
	case ".csv":
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		if err := WriteCSV(f, records); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(outputPath))
	}
}
