package data

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is a single validated row, split by storage kind.
type Record struct {
	Numbers map[string]float64
	Texts   map[string]string
}

func NewRecord() Record {
	return Record{
		Numbers: make(map[string]float64),
		Texts:   make(map[string]string),
	}
}

// Key renders the record in a canonical order, suitable as a cache key.
func (r Record) Key() string {
	keys := make([]string, 0, len(r.Numbers)+len(r.Texts))
	for k := range r.Numbers {
		keys = append(keys, "n:"+k)
	}
	for k := range r.Texts {
		keys = append(keys, "t:"+k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		name := k[2:]
		b.WriteString(name)
		b.WriteByte('=')
		if k[0] == 'n' {
			b.WriteString(strconv.FormatFloat(r.Numbers[name], 'g', -1, 64))
		} else {
			b.WriteString(strconv.Quote(r.Texts[name]))
		}
		b.WriteByte(';')
	}
	return b.String()
}

// FrameFromRecords lays records out as a frame with the given numeric and
// categorical columns, in that order. A field absent from a record becomes a
// missing cell, leaving the imputation policy to the transformer.
func FrameFromRecords(numeric, categorical []string, records ...Record) (*Frame, error) {
	columns := make([]*Column, 0, len(numeric)+len(categorical))
	for _, name := range numeric {
		values := make([]float64, len(records))
		for i, rec := range records {
			v, ok := rec.Numbers[name]
			if !ok {
				if _, wrong := rec.Texts[name]; wrong {
					return nil, fmt.Errorf("field %q: expected a number", name)
				}
				v = math.NaN()
			}
			values[i] = v
		}
		columns = append(columns, NewNumericColumn(name, values))
	}
	for _, name := range categorical {
		values := make([]string, len(records))
		nulls := make([]bool, len(records))
		for i, rec := range records {
			v, ok := rec.Texts[name]
			if !ok {
				if _, wrong := rec.Numbers[name]; wrong {
					return nil, fmt.Errorf("field %q: expected a string", name)
				}
				nulls[i] = true
			}
			values[i] = v
		}
		columns = append(columns, NewCategoricalColumn(name, values, nulls))
	}
	return NewFrame(columns...)
}
