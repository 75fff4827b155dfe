package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// nameAlias is accepted in place of the "university" key.
const nameAlias = "name"

// Decode reads a JSON array of university objects and builds a catalog from it.
// Numbers are kept as json.Number so that a fractional value in an integer field
// is rejected instead of being truncated.
func Decode(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse catalog json: %w", err)
	}

	records := make([]University, len(items))
	for idx, item := range items {
		if _, ok := item["university"]; !ok {
			if name, ok := item[nameAlias]; ok {
				item["university"] = name
			}
		}

		cfg := &mapstructure.DecoderConfig{
			DecodeHook: rejectNumberAsString,
			Result:     &records[idx],
			TagName:    "json",
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", idx, err)
		}
	}

	return New(records)
}

var numberType = reflect.TypeOf(json.Number(""))

// rejectNumberAsString keeps a JSON number from landing in a string field:
// json.Number has string kind and would otherwise be copied as is.
func rejectNumberAsString(from, to reflect.Type, data any) (any, error) {
	if from == numberType && to.Kind() == reflect.String && to != numberType {
		return nil, fmt.Errorf("expected a string, got number %s", data)
	}
	return data, nil
}
