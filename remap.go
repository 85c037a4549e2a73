package shpsql

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/shpsql/compression"
	"github.com/nao1215/shpsql/domain/model"
)

// RemapTable maps original field names to output column names.
// Lookups ignore case. Fields seen without an override map to themselves.
type RemapTable struct {
	entries map[string]*remapEntry
}

// remapEntry is one mapping of a RemapTable
type remapEntry struct {
	original string
	target   string
	// seeded is set once a dataset field carried this name
	seeded bool
}

// NewRemapTable creates an empty RemapTable
func NewRemapTable() *RemapTable {
	return &RemapTable{entries: make(map[string]*remapEntry)}
}

// foldName returns the lookup key of a field name
func foldName(name string) string {
	return cases.Fold().String(name)
}

// Set records an override. A later override of the same name replaces the earlier one.
func (r *RemapTable) Set(original, target string) error {
	if original == "" || target == "" {
		return fmt.Errorf("%w: remap %q=%q: names cannot be empty", ErrFormat, original, target)
	}
	if _, err := QuoteIdentifier(target); err != nil {
		return err
	}
	key := foldName(original)
	if entry, ok := r.entries[key]; ok {
		entry.target = target
		return nil
	}
	r.entries[key] = &remapEntry{original: original, target: target}
	return nil
}

// Seed adds an identity mapping for every field without an override
func (r *RemapTable) Seed(fields []model.FieldDescriptor) {
	for _, field := range fields {
		key := foldName(field.Name)
		if entry, ok := r.entries[key]; ok {
			entry.seeded = true
			continue
		}
		r.entries[key] = &remapEntry{original: field.Name, target: field.Name, seeded: true}
	}
}

// Resolve returns the output column name of a field
func (r *RemapTable) Resolve(original string) string {
	if entry, ok := r.entries[foldName(original)]; ok {
		return entry.target
	}
	return original
}

// Len returns the number of mappings
func (r *RemapTable) Len() int {
	return len(r.entries)
}

// Unused returns the overrides that matched no seeded field, sorted
func (r *RemapTable) Unused() []string {
	var unused []string
	for _, entry := range r.entries {
		if !entry.seeded {
			unused = append(unused, entry.original)
		}
	}
	sort.Strings(unused)
	return unused
}

// Clone returns an independent copy
func (r *RemapTable) Clone() *RemapTable {
	clone := NewRemapTable()
	for key, entry := range r.entries {
		copied := *entry
		clone.entries[key] = &copied
	}
	return clone
}

// ParseRemap splits an "OLD=NEW" rename on its first '='
func ParseRemap(arg string) (string, string, error) {
	original, target, found := strings.Cut(arg, "=")
	if !found {
		return "", "", fmt.Errorf("%w: remap %q should be of the form OLD=NEW", ErrFormat, arg)
	}
	if original == "" || target == "" {
		return "", "", fmt.Errorf("%w: remap %q: names cannot be empty", ErrFormat, arg)
	}
	return original, target, nil
}

// LoadRemapFile reads a YAML mapping of original to output field names:
//
//	NAME: city_name
//	POP: population
//
// The file may be compressed.
func LoadRemapFile(path string) (map[string]string, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, NewErrorContext("read remap file", path).Error(err)
	}
	mapping := make(map[string]string)
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, NewErrorContext("parse remap file", path).Error(fmt.Errorf("%w: %w", ErrFormat, err))
	}
	return mapping, nil
}

// buildRemapTable creates the override table from a remap file and "OLD=NEW" args.
// Specs are applied last and win over the file.
func buildRemapTable(file string, args []string) (*RemapTable, error) {
	table := NewRemapTable()
	if file != "" {
		mapping, err := LoadRemapFile(file)
		if err != nil {
			return nil, err
		}
		originals := make([]string, 0, len(mapping))
		for original := range mapping {
			originals = append(originals, original)
		}
		sort.Strings(originals)
		for _, original := range originals {
			if err := table.Set(original, mapping[original]); err != nil {
				return nil, NewErrorContext("parse remap file", file).Error(err)
			}
		}
	}
	for _, arg := range args {
		original, target, err := ParseRemap(arg)
		if err != nil {
			return nil, err
		}
		if err := table.Set(original, target); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// QuoteIdentifier wraps a table or column name in backquotes.
// Names containing a backquote cannot be quoted and are rejected.
func QuoteIdentifier(name string) (string, error) {
	if strings.ContainsRune(name, '`') {
		return "", fmt.Errorf("%w: identifier %q contains a backquote", ErrFormat, name)
	}
	return "`" + name + "`", nil
}
