package watches

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
)

// Extractor pulls job ids out of an arbitrary JSON value with a jq program.
type Extractor struct {
	query string
	code  *gojq.Code
}

// NewExtractor parses and compiles query.
func NewExtractor(query string) (*Extractor, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Extractor{query: query, code: code}, nil
}

// Query returns the jq source the extractor was built from.
func (e *Extractor) Query() string { return e.query }

// IDs runs the program against v and returns distinct, non-empty ids in the
// order they were produced. Values that cannot be rendered as an id and jq
// runtime errors are reported but do not stop extraction.
func (e *Extractor) IDs(v any) ([]string, []error) {
	var (
		ids  []string
		errs []error
		seen = make(map[string]struct{})
	)

	iter := e.code.Run(normalizeNumbers(v))
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			if herr, ok := err.(*gojq.HaltError); ok && herr.Value() == nil {
				break
			}
			errs = append(errs, err)
			continue
		}

		id, err := renderID(out)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, errs
}

func renderID(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(x), nil
	case json.Number:
		return renderNumber(x)
	case int:
		return strconv.Itoa(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("job id %v is not finite", x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case *big.Int:
		return x.String(), nil
	default:
		return "", fmt.Errorf("job id of type %T is not a scalar", v)
	}
}

// renderNumber keeps the decimal text of integral numbers as sent.
func renderNumber(n json.Number) (string, error) {
	if _, ok := new(big.Int).SetString(n.String(), 10); ok {
		return n.String(), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("job id %q is not a number: %w", n, err)
	}
	return renderID(f)
}

// normalizeNumbers converts json.Number values into the numeric types gojq
// operates on: int when it fits, *big.Int for larger integers, else float64.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil && int64(int(i)) == i {
			return int(i)
		}
		if b, ok := new(big.Int).SetString(x.String(), 10); ok {
			return b
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeNumbers(val)
		}
		return out
	default:
		return v
	}
}
