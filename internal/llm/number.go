package llm

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric field in a model reply. Models quote numbers often
// enough ("8", "4.5") that both forms are accepted. Any other value, null
// included, leaves the Number unset rather than failing the decode.
type Number struct {
	Value float64
	Set   bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		n.Value, n.Set = v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n.Value, n.Set = f, true
		}
	}
	return nil
}

// Clamp rounds the value into [lo, hi], returning def when unset.
func (n Number) Clamp(lo, hi, def int) int {
	if !n.Set {
		return def
	}
	return int(math.Round(math.Min(float64(hi), math.Max(float64(lo), n.Value))))
}
