package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// FieldMap fills canonical record fields that an upstream payload names
// differently. Each entry maps a canonical field to a JSONPath expression
// evaluated against the raw record; existing fields are never overwritten.
type FieldMap struct {
	fields []string
	evals  map[string]gval.Evaluable
}

// NewFieldMap compiles the JSONPath expressions in exprs.
func NewFieldMap(exprs map[string]string) (FieldMap, error) {
	fm := FieldMap{evals: make(map[string]gval.Evaluable, len(exprs))}
	for field, expr := range exprs {
		if expr == "" {
			continue
		}
		eval, err := jsonpath.New(expr)
		if err != nil {
			return FieldMap{}, fmt.Errorf("field %s: invalid jsonpath %q: %w", field, expr, err)
		}
		fm.evals[field] = eval
		fm.fields = append(fm.fields, field)
	}
	sort.Strings(fm.fields)
	return fm, nil
}

// Apply returns rec with missing canonical fields filled in. rec is modified
// only when a field is added, and it is always a freshly decoded record.
func (fm FieldMap) Apply(rec Record) Record {
	if len(fm.fields) == 0 || rec == nil {
		return rec
	}
	doc := map[string]any(rec)
	for _, field := range fm.fields {
		if v, ok := rec[field]; ok && v != nil && v != "" {
			continue
		}
		v, err := fm.evals[field](context.Background(), doc)
		if err != nil || v == nil {
			continue
		}
		rec[field] = v
	}
	return rec
}

// Len returns the number of mapped fields.
func (fm FieldMap) Len() int {
	return len(fm.fields)
}
