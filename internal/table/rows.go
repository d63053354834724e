package table

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FirstDataRow is the sheet-style index of the first data row: row 1 is the
// header, so user-facing row numbers start at 2.
const FirstDataRow = 2

// ParseRowRanges parses a sheet-style row range string such as "2:10,12,15:"
// into 0-based row indexes. Range bounds are inclusive and numbered the way
// a spreadsheet displays them (header is row 1). An empty start means the
// first data row, an empty end means the last row; ":" selects every row.
// Indexes outside [0, nRows) may be returned; callers skip them row by row.
// Parsing is best effort: an invalid piece is logged and substituted with
// the first data row instead of failing the whole range.
func ParseRowRanges(rangeStr string, nRows int) []int {
	var indexes []int

	for _, part := range strings.Split(rangeStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, ":") {
			n, err := strconv.Atoi(part)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid row %q, using the first data row\n", part)
				indexes = append(indexes, 0)
				continue
			}
			indexes = append(indexes, n-FirstDataRow)
			continue
		}

		bounds := strings.SplitN(part, ":", 2)

		valid := true
		start := 0
		if bounds[0] != "" {
			n, err := strconv.Atoi(bounds[0])
			if err != nil {
				valid = false
			} else {
				start = n - FirstDataRow
			}
		}

		end := nRows
		if valid && bounds[1] != "" {
			n, err := strconv.Atoi(bounds[1])
			if err != nil {
				valid = false
			} else {
				end = n - FirstDataRow + 1
			}
		}

		if !valid {
			fmt.Fprintf(os.Stderr, "Invalid row range %q, using the first data row\n", part)
			indexes = append(indexes, 0)
			continue
		}

		for i := start; i < end; i++ {
			indexes = append(indexes, i)
		}
	}

	return indexes
}
