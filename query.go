package shpsql

import (
	"fmt"
	"strings"

	"github.com/nao1215/shpsql/domain/model"
)

// Filter selects records whose field equals a value, ignoring case
type Filter struct {
	// Field is the original (not remapped) field name
	Field string
	// Value is compared with the textual value of the field
	Value string
}

// ParseFilter parses a "FIELD=VALUE" query. The value may itself contain '='.
func ParseFilter(arg string) (Filter, error) {
	field, value, found := strings.Cut(arg, "=")
	if !found {
		return Filter{}, fmt.Errorf("%w: query %q should be of the form FIELD=VALUE", ErrFormat, arg)
	}
	if field == "" {
		return Filter{}, fmt.Errorf("%w: query %q has no field name", ErrFormat, arg)
	}
	return Filter{Field: field, Value: value}, nil
}

// Predicate returns the predicate handed to the dataset scan.
// Records without the field never match.
func (f Filter) Predicate() model.Predicate {
	return func(record *model.Record) bool {
		cell, ok := record.Value(f.Field)
		if !ok {
			return false
		}
		return strings.EqualFold(cell.String(), f.Value)
	}
}

// String returns the query in "FIELD=VALUE" form
func (f Filter) String() string {
	return f.Field + "=" + f.Value
}
