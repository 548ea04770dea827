package register

import (
	"encoding/json"
	"math"
	"sort"
)

// Reconcile deduplicates and validates extractor output. Entries with a
// missing, non-integer, or negative address are discarded. Duplicate
// addresses keep the entry with the strictly greater
// len(description)+len(name); on an exact tie the first-encountered entry
// wins. Output is sorted by ascending address.
//
// Reconcile is idempotent: feeding its output (as Raw) back in yields the
// same result.
func Reconcile(raw []Raw) []Register {
	seen := make(map[int]Register)
	for _, r := range raw {
		addr, ok := coerceAddress(r.Address)
		if !ok {
			continue
		}
		entry := Register{
			Address:     addr,
			Name:        coerceString(r.Name),
			Datatype:    NormalizeDatatype(coerceString(r.Datatype)),
			Description: coerceString(r.Description),
			Writable:    coerceWritable(r.Writable),
		}

		existing, dup := seen[addr]
		if !dup {
			seen[addr] = entry
			continue
		}
		if informativeness(entry) > informativeness(existing) {
			seen[addr] = entry
		}
	}

	out := make([]Register, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// informativeness is the duplicate-resolution heuristic: longer
// description plus name means a more complete entry.
func informativeness(r Register) int {
	return len(r.Description) + len(r.Name)
}

// coerceAddress accepts only integral, non-negative numeric addresses.
// JSON numbers decode as float64; anything fractional, negative, or
// non-numeric is rejected rather than corrected.
func coerceAddress(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, false
		}
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

// coerceWritable tolerates the extractor answering with a bool or with
// access-column vocabulary; absent or unrecognized means read-only.
func coerceWritable(v any) bool {
	switch w := v.(type) {
	case bool:
		return w
	case string:
		return ParseWritable(w)
	default:
		return false
	}
}
