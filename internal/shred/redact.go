package shred

import (
	"maps"
)

// Marker is the fixed replacement value for any masked scalar field. It is
// stable, so masking an already-masked field is a no-op and every transform
// in this file is idempotent.
const Marker = "█"

// Transform rewrites a decoded log payload and returns the redacted copy.
// The input is never mutated; the host serializes writes, so a pure
// transform removes any ordering hazard between shredders touching the same
// entry. The second return value reports whether the entry is considered
// handled and must be persisted with its shredded flag set.
type Transform func(payload map[string]any) (map[string]any, bool)

// ActionRule binds one log action type to the transform a shredder applies
// to its entries. When Contains is set, Action matches as a substring
// (used for the order.email.* family).
type ActionRule struct {
	Action   string
	Contains bool
	Apply    Transform
}

// Schema is the per-shredder redaction schema: which entries to scan and
// which fields to mask in each. Keeping this as data separates "which
// fields" from "how to mask" and makes the field-ownership partition across
// shredders testable on its own.
type Schema []ActionRule

// MaskKeys masks the listed top-level fields where present. Missing fields
// are left untouched; the entry is handled either way.
func MaskKeys(keys ...string) Transform {
	return func(payload map[string]any) (map[string]any, bool) {
		out := maps.Clone(payload)
		for _, k := range keys {
			if _, ok := out[k]; ok {
				out[k] = Marker
			}
		}
		return out, true
	}
}

// KeepOnly masks every top-level field not in the allow-list.
func KeepOnly(keys ...string) Transform {
	keep := keySet(keys)
	return func(payload map[string]any) (map[string]any, bool) {
		out := maps.Clone(payload)
		for k := range out {
			if !keep[k] {
				out[k] = Marker
			}
		}
		return out, true
	}
}

// MaskRowKeys masks the listed fields in every row of the payload's "data"
// list. Entries without a data list are not handled.
func MaskRowKeys(keys ...string) Transform {
	return maskRows(func(row map[string]any) map[string]any {
		out := maps.Clone(row)
		for _, k := range keys {
			if _, ok := out[k]; ok {
				out[k] = Marker
			}
		}
		return out
	})
}

// MaskRowsExcept masks every field of every row in the payload's "data"
// list, except the listed ones. Those are owned by other shredders and must
// survive untouched.
func MaskRowsExcept(keys ...string) Transform {
	keep := keySet(keys)
	return maskRows(func(row map[string]any) map[string]any {
		out := maps.Clone(row)
		for k := range out {
			if !keep[k] {
				out[k] = Marker
			}
		}
		return out
	})
}

// MaskTruthyIn masks every field with a non-empty value inside the named
// nested mapping. Empty values carry no information and stay as they are.
// Payloads where the field is absent or not a mapping (older entries store
// a boolean flag there) are not handled.
func MaskTruthyIn(field string) Transform {
	return func(payload map[string]any) (map[string]any, bool) {
		nested, ok := payload[field].(map[string]any)
		if !ok {
			return payload, false
		}
		masked := maps.Clone(nested)
		for k, v := range masked {
			if truthy(v) {
				masked[k] = Marker
			}
		}
		out := maps.Clone(payload)
		out[field] = masked
		return out, true
	}
}

func maskRows(maskRow func(map[string]any) map[string]any) Transform {
	return func(payload map[string]any) (map[string]any, bool) {
		rows, ok := payload["data"].([]any)
		if !ok {
			return payload, false
		}
		outRows := make([]any, len(rows))
		for i, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				outRows[i] = r
				continue
			}
			outRows[i] = maskRow(row)
		}
		out := maps.Clone(payload)
		out["data"] = outRows
		return out, true
	}
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// truthy follows the decoded-JSON value kinds produced by encoding/json.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
