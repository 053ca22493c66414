package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

// WriteCSV writes the result details as key/value rows followed by the path
// points.
func WriteCSV(w io.Writer, details document.Details, path []document.Point) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"# Algorithm Information"}}
	for _, row := range details.Rows() {
		records = append(records, []string{row.Key, row.Value})
	}
	records = append(records,
		[]string{"smoothness", strconv.FormatFloat(Smoothness(path), 'f', 4, 64)},
		[]string{},
		[]string{"# Path Points (x, y)"},
		[]string{"x", "y"},
	)
	for _, p := range path {
		records = append(records, []string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		})
	}
	return cw.WriteAll(records)
}
