package review

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"gutcheck/domain/core"
	"gutcheck/domain/curation"
)

// Import reads a reviewer-edited artifact back and maps the decision
// column onto the record's tiers. Decisions override auto-assigned
// tiers only for manual-review rows; the second return lists species
// whose decisions were ignored for being outside that tier. A row with
// a species unknown to the record rejects the whole import.
func Import(rec curation.Record, path string) (curation.Record, []string, error) {
	var (
		rows []artifactRow
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		rows, err = importExcelRows(path)
	} else {
		rows, err = importCSVRows(path)
	}
	if err != nil {
		return curation.Record{}, nil, err
	}

	reviewed, err := toReviewed(rows)
	if err != nil {
		return curation.Record{}, nil, err
	}
	return rec.ApplyReview(reviewed)
}

func importCSVRows(path string) ([]artifactRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewInputError(path, "opening curation artifact: "+err.Error())
	}
	defer f.Close()

	var rows []artifactRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, core.NewInputError(path, "parsing curation artifact: "+err.Error())
	}
	return rows, nil
}

func importExcelRows(path string) ([]artifactRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, core.NewInputError(path, "opening curation artifact: "+err.Error())
	}
	defer f.Close()

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, core.NewInputError(path, "reading curation sheet: "+err.Error())
	}
	if len(raw) < 1 {
		return nil, core.NewInputError(path, "curation sheet is empty")
	}

	col := make(map[string]int)
	for i, h := range raw[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range []string{"species", "tier", "decision"} {
		if _, ok := col[h]; !ok {
			return nil, core.NewInputError(path, "curation sheet is missing column "+h)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]artifactRow, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if cell(r, "species") == "" {
			continue
		}
		count, _ := strconv.Atoi(cell(r, "count"))
		percent, _ := strconv.ParseFloat(cell(r, "percent"), 64)
		rows = append(rows, artifactRow{
			Species:  cell(r, "species"),
			Phylum:   cell(r, "phylum"),
			Genus:    cell(r, "genus"),
			Count:    count,
			Percent:  percent,
			Tier:     cell(r, "tier"),
			Decision: cell(r, "decision"),
			Notes:    cell(r, "notes"),
		})
	}
	return rows, nil
}
