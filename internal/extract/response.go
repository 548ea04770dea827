package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/modmap/internal/register"
)

// ErrMalformedOutput signals that the extractor's response is not a
// register document. No partial recovery is attempted: guessing field
// meanings would poison the reconciled output.
var ErrMalformedOutput = errors.New("malformed extractor output")

// Result is the validated shape of an extraction response. Registers stay
// loosely typed; the reconciler owns field coercion.
type Result struct {
	Registers []register.Raw `json:"registers"`
	Metadata  map[string]any `json:"metadata"`
}

// resultSchema pins only the envelope: an object holding a registers array
// of objects. Field-level sloppiness inside each register is tolerated by
// design and resolved during reconciliation.
const resultSchema = `{
	"type": "object",
	"required": ["registers"],
	"properties": {
		"registers": {
			"type": "array",
			"items": {"type": "object"}
		},
		"metadata": {"type": "object"}
	}
}`

var resultValidator = jsonschema.MustCompileString("result.json", resultSchema)

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	embeddedJSON  = regexp.MustCompile(`(?s)\{.*"registers".*\}`)
	leadingFence  = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

// ParseResult locates the JSON document in a model response, validates its
// envelope shape, and decodes it. Models occasionally wrap output in
// markdown fences or prose despite instructions, so several recovery
// passes run before giving up.
func ParseResult(raw string) (*Result, error) {
	var firstErr error
	for _, candidate := range jsonCandidates(raw) {
		var doc any
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			continue
		}
		if err := resultValidator.Validate(doc); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %v", ErrMalformedOutput, err)
			}
			continue
		}
		var result Result
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		return &result, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%w: no JSON document found in response (%s)", ErrMalformedOutput, truncate(raw, 200))
}

// jsonCandidates yields substrings of the response to try as JSON, most
// specific first.
func jsonCandidates(raw string) []string {
	var candidates []string
	trimmed := strings.TrimSpace(raw)
	if m := leadingFence.FindStringSubmatch(trimmed); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, trimmed)
	if m := fencedJSON.FindStringSubmatch(raw); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if m := embeddedJSON.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}
	return candidates
}
