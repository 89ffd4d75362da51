package io

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/stackscout/pkg/dataset"
)

// Workbook sheet names, in order.
const (
	SheetAll        = "All Packages"
	SheetActive     = "Top 50 Active"
	SheetDownloads  = "Top 50 Downloads"
	SheetQuality    = "Top 50 Quality"
	SheetProduction = "Best for Production"
	SheetCategories = "Categories"
	SheetMatrix     = "Category Matrix"
	SheetKeyMetrics = "Key Metrics"
)

// Workbook ranking parameters.
const (
	SheetTopN             = 50
	ProductionDocMin      = 3.0
	ProductionActivityMin = 50
)

type view struct {
	sheet   string
	columns []string
	rows    func([]dataset.Record) []dataset.Record
}

var views = []view{
	{SheetAll, dataset.Columns(), func(rs []dataset.Record) []dataset.Record { return rs }},
	{SheetActive,
		[]string{"name", "activity_score", "downloads_last_month", "github_stars", "releases_per_year", "contributors_count"},
		func(rs []dataset.Record) []dataset.Record { return dataset.TopBy(rs, dataset.ByActivity, SheetTopN) }},
	{SheetDownloads,
		[]string{"name", "downloads_last_month", "github_stars", "activity_score", "documentation_score"},
		func(rs []dataset.Record) []dataset.Record { return dataset.TopBy(rs, dataset.ByDownloads, SheetTopN) }},
	{SheetQuality,
		[]string{"name", "documentation_score", "has_tests", "has_ci", "activity_score", "github_stars"},
		func(rs []dataset.Record) []dataset.Record {
			tested := dataset.Filter(rs, func(r dataset.Record) bool { return r.HasTests })
			return dataset.TopBy(tested, dataset.ByDocumentation, SheetTopN)
		}},
	{SheetProduction,
		[]string{"name", "activity_score", "documentation_score", "downloads_last_month", "releases_per_year", "contributors_count", "package_size_kb"},
		func(rs []dataset.Record) []dataset.Record {
			ready := dataset.ProductionReady(rs, ProductionDocMin, ProductionActivityMin)
			if len(ready) > SheetTopN {
				ready = ready[:SheetTopN]
			}
			return ready
		}},
}

var keyMetrics = view{SheetKeyMetrics,
	[]string{"name", "categories", "downloads_last_month", "github_stars", "activity_score",
		"documentation_score", "package_size_kb", "releases_per_year", "has_tests", "has_ci",
		"contributors_count", "open_pull_requests", "last_commit_date", "vulnerabilities"},
	func(rs []dataset.Record) []dataset.Record { return dataset.TopBy(rs, dataset.ByActivity, 0) }}

// WriteXLSX writes a workbook with the full table, the ranked sheets, the
// category breakdowns and a key metrics sheet.
func WriteXLSX(records []dataset.Record, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	wb := &workbook{f: f, header: bold}

	if err := f.SetSheetName("Sheet1", SheetAll); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, v := range views {
		if err := wb.writeView(v, records); err != nil {
			return err
		}
	}
	if err := wb.writeCategories(records); err != nil {
		return err
	}
	if err := wb.writeView(keyMetrics, records); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type workbook struct {
	f      *excelize.File
	header int
}

func (wb *workbook) sheet(name string) error {
	if idx, _ := wb.f.GetSheetIndex(name); idx >= 0 {
		return nil
	}
	if _, err := wb.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return nil
}

func (wb *workbook) writeRows(name string, header []string, rows [][]any) error {
	if err := wb.sheet(name); err != nil {
		return err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := wb.f.SetSheetRow(name, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", name, err)
	}
	if err := wb.f.SetRowStyle(name, 1, 1, wb.header); err != nil {
		return fmt.Errorf("%s header style: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func (wb *workbook) writeView(v view, records []dataset.Record) error {
	idx := columnIndex()
	picked := v.rows(records)
	rows := make([][]any, len(picked))
	for i, r := range picked {
		full := r.Row()
		row := make([]any, len(v.columns))
		for j, col := range v.columns {
			row[j] = full[idx[col]]
		}
		rows[i] = row
	}
	return wb.writeRows(v.sheet, v.columns, rows)
}

func (wb *workbook) writeCategories(records []dataset.Record) error {
	counts := dataset.CategoryCounts(records)
	rows := make([][]any, len(counts))
	for i, c := range counts {
		rows[i] = []any{c.Label, c.Count}
	}
	if err := wb.writeRows(SheetCategories, []string{"Category", "Count"}, rows); err != nil {
		return err
	}

	matrix := dataset.CategoryMatrix(records)
	rows = make([][]any, len(matrix))
	for i, m := range matrix {
		rows[i] = []any{m.Category, m.Packages, m.AvgActivity, m.AvgDocumentation,
			m.TotalDownloads, m.AvgStars, m.WithTests, m.WithCI}
	}
	return wb.writeRows(SheetMatrix, []string{"Category", "Packages", "Avg Activity",
		"Avg Documentation", "Total Downloads", "Avg Stars", "With Tests", "With CI"}, rows)
}

func columnIndex() map[string]int {
	cols := dataset.Columns()
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return idx
}
