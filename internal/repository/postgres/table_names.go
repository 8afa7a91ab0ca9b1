package postgres

import "fmt"

// TableNames holds environment-prefixed table names.
type TableNames struct {
	DirectoryItems string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		DirectoryItems: fmt.Sprintf("%sdirectory_items", prefix),
	}
}
