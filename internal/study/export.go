package study

import (
	"math"

	"gointegral/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	levelsSheet  = "Levels"
	summarySheet = "Summary"
)

var levelHeaders = []string{
	"Samples", "Trials", "Mean value", "Std dev", "P05", "P95",
	"Mean error estimate", "Mean abs error", "Mean seconds",
}

// WriteXLSX writes the report to path as a workbook with a per-level table
// and a summary sheet.
func WriteXLSX(path string, r *Report) error {
	if r == nil {
		return errors.ValidationError("report must not be nil")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", levelsSheet); err != nil {
		return errors.Wrap(err, "failed to name levels sheet")
	}

	for i, h := range levelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(levelsSheet, cell, h); err != nil {
			return err
		}
	}
	for i, l := range r.Levels {
		row := []any{
			l.Samples, l.Trials, l.MeanValue, l.StdDevValue, l.ValueP05, l.ValueP95,
			l.MeanErrorEstimate, cellFloat(l.MeanAbsError), l.MeanSeconds,
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			if err := f.SetCellValue(levelsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "failed to create summary sheet")
	}
	exact := any("")
	if r.HasExact {
		exact = r.Exact
	}
	summary := [][2]any{
		{"Integrand", r.Name},
		{"Method", r.Method},
		{"Bounds", r.Bounds.String()},
		{"Dimension", r.Bounds.Dimension()},
		{"Exact", exact},
		{"Evaluations", r.Evaluated},
		{"Reported slope", cellFloat(r.ReportedSlope)},
		{"Observed slope", cellFloat(r.ObservedSlope)},
	}
	for i, kv := range summary {
		for c, v := range kv {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// cellFloat leaves undefined statistics as empty cells.
func cellFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
