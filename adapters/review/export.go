package review

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"gutcheck/domain/curation"
	"gutcheck/internal/errors"
)

const sheetName = "Curation"

// Export writes a curation record as a reviewer-editable artifact.
// The format is chosen by extension: .xlsx gets a spreadsheet, any
// other extension gets CSV.
func Export(rec curation.Record, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return exportExcel(rec, path)
	}
	return exportCSV(rec, path)
}

func exportCSV(rec curation.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating curation artifact %s", path)
	}
	defer f.Close()

	rows := toRows(rec)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return errors.Wrapf(err, "writing curation artifact %s", path)
	}
	return nil
}

func exportExcel(rec curation.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return errors.Wrap(err, "creating curation sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}

	for col, h := range artifactHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "building header cell name")
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return errors.Wrap(err, "writing header cell")
		}
	}
	for i, row := range toRows(rec) {
		values := []interface{}{row.Species, row.Phylum, row.Genus, row.Count, row.Percent, row.Tier, row.Decision, row.Notes}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return errors.Wrap(err, "building cell name")
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return errors.Wrap(err, "writing curation cell")
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving curation artifact %s", path)
	}
	return nil
}
