package strapi

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// unmarshalFlat decodes CMS data into out, accepting both the flat shape
// (`{id, title, student: {...}}`) and the nested one
// (`{id, attributes: {title, student: {data: {...}}}}`).
func unmarshalFlat(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return errors.Wrap(err, "decoding CMS data")
	}
	flat, err := json.Marshal(flatten(v))
	if err != nil {
		return errors.Wrap(err, "encoding flattened CMS data")
	}
	return errors.Wrap(json.Unmarshal(flat, out), "decoding flattened CMS data")
}

func flatten(v interface{}) interface{} {
	switch val := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = flatten(item)
		}
		return out
	case map[string]interface{}:
		if attrs, ok := val["attributes"].(map[string]interface{}); ok {
			out := make(map[string]interface{}, len(attrs)+2)
			for k, attr := range attrs {
				out[k] = flatten(attr)
			}
			for _, k := range []string{"id", "documentId"} {
				if id, ok := val[k]; ok {
					out[k] = id
				}
			}
			return out
		}
		if isRelation(val) {
			return flatten(val["data"])
		}
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = flatten(item)
		}
		return out
	}
	return v
}

// isRelation spots a nested relation wrapper: `{data: ...}` optionally with `meta`.
func isRelation(m map[string]interface{}) bool {
	if _, ok := m["data"]; !ok {
		return false
	}
	switch len(m) {
	case 1:
		return true
	case 2:
		_, ok := m["meta"]
		return ok
	}
	return false
}
