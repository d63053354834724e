// Package table provides the tabular capability the analysis and
// verification drivers run against, keeping them free of any file-format
// dependency.
package table

// Table is an abstract get-cell/set-cell view of a tabular dataset. Rows are
// 0-based data rows; the header is not a row. Implementations must allow
// concurrent Set calls on distinct rows.
type Table interface {
	// Headers returns the column names in order.
	Headers() []string

	// Len returns the number of data rows.
	Len() int

	// Get returns the cell value and whether the column exists.
	Get(row int, column string) (string, bool)

	// Set writes a cell value. The column must exist.
	Set(row int, column string, value string) error

	// EnsureColumn adds the column with empty cells if it is missing.
	EnsureColumn(name string)
}

// VerifiedFieldName derives the sibling column that holds verification
// results for an output field.
func VerifiedFieldName(field string) string {
	return field + "_verified"
}
