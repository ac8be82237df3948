package querybuilder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// layout is the db-tagged field set of one struct type.
type layout struct {
	columns []string
	fields  []int
}

var layouts sync.Map // reflect.Type -> layout

func layoutOf(typ reflect.Type) (layout, error) {
	if cached, ok := layouts.Load(typ); ok {
		return cached.(layout), nil
	}

	var l layout
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		l.columns = append(l.columns, col)
		l.fields = append(l.fields, i)
	}
	if len(l.columns) == 0 {
		return layout{}, fmt.Errorf("%s has no db columns", typ)
	}

	layouts.Store(typ, l)
	return l, nil
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, errors.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be a struct, got %s", value.Kind())
	}
	return value, nil
}

func valuesOf(value reflect.Value, l layout) []any {
	out := make([]any, len(l.fields))
	for i, idx := range l.fields {
		out[i] = value.Field(idx).Interface()
	}
	return out
}

// Columns lists the db columns of a tagged struct in field order.
func Columns(model any) ([]string, error) {
	value, err := structValue(model)
	if err != nil {
		return nil, err
	}
	l, err := layoutOf(value.Type())
	if err != nil {
		return nil, err
	}
	return append([]string(nil), l.columns...), nil
}

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

// InsertModels builds one multi-row insert from db-tagged structs of a single type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, errors.New("insert models are required")
	}

	builder := InsertInto(table).Suffix(suffix)
	var l layout
	var typ reflect.Type
	for i, model := range models {
		value, err := structValue(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			typ = value.Type()
			if l, err = layoutOf(typ); err != nil {
				return "", nil, err
			}
			builder.Columns(l.columns...)
		} else if value.Type() != typ {
			return "", nil, fmt.Errorf("model %d is %s, expected %s", i, value.Type(), typ)
		}
		builder.Values(valuesOf(value, l)...)
	}
	return builder.ToSQL()
}
