package register

import "strings"

// Register is a single validated Modbus register entry. After
// reconciliation the slice handed to callers is treated as ground truth
// and serialized directly.
type Register struct {
	Address     int    `json:"address"`
	Name        string `json:"name"`
	Datatype    string `json:"datatype"`
	Description string `json:"description"`
	Writable    bool   `json:"writable"`
}

// Raw is a loosely-typed register record as returned by the extractor.
// Every field is `any` because the model's output cannot be trusted to be
// well-typed; coercion happens during reconciliation.
type Raw struct {
	Address     any `json:"address"`
	Name        any `json:"name"`
	Datatype    any `json:"datatype"`
	Description any `json:"description"`
	Writable    any `json:"writable"`
}

// datatypeMap normalizes the many source spellings of register data types.
var datatypeMap = map[string]string{
	"int":     "INT16",
	"int16":   "INT16",
	"sint16":  "INT16",
	"integer": "INT16",
	"uint":    "UINT16",
	"uint16":  "UINT16",
	"word":    "UINT16",
	"int32":   "INT32",
	"sint32":  "INT32",
	"long":    "INT32",
	"uint32":  "UINT32",
	"dword":   "UINT32",
	"ulong":   "UINT32",
	"float":   "FLOAT32",
	"float32": "FLOAT32",
	"real":    "FLOAT32",
	"single":  "FLOAT32",
	"float64": "FLOAT64",
	"double":  "FLOAT64",
	"lreal":   "FLOAT64",
	"string":  "STRING",
	"ascii":   "STRING",
	"bool":    "BOOL",
	"boolean": "BOOL",
	"bit":     "BOOL",
	"coil":    "COIL",
}

// NormalizeDatatype maps a source data-type spelling to its canonical
// form. Unknown types are uppercased and passed through.
func NormalizeDatatype(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if normalized, ok := datatypeMap[key]; ok {
		return normalized
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseWritable interprets access-column vocabulary. Unrecognized or empty
// values default to read-only.
func ParseWritable(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r/w", "rw", "read/write", "read-write", "w", "wo", "write", "write only", "true":
		return true
	default:
		return false
	}
}
