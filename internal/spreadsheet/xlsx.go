package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/franz/media-tracker/internal/util"
)

// readXLSX reads the active worksheet of a workbook
func readXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrParse, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no worksheet", util.ErrParse)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", util.ErrParse, sheet, err)
	}

	firstColumn := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			firstColumn[i] = row[0]
		}
	}
	return collectFirstColumn(firstColumn), nil
}
