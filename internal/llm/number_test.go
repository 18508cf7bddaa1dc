package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in    string
		set   bool
		value float64
	}{
		{`7`, true, 7},
		{`4.5`, true, 4.5},
		{`"8"`, true, 8},
		{`" 85 "`, true, 85},
		{`"hard"`, false, 0},
		{`"NaN"`, false, 0},
		{`null`, false, 0},
		{`true`, false, 0},
		{`[1]`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				N Number `json:"n"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"n": `+tt.in+`}`), &v))
			assert.Equal(t, tt.set, v.N.Set)
			assert.Equal(t, tt.value, v.N.Value)
		})
	}
}

func TestNumberClamp(t *testing.T) {
	assert.Equal(t, 5, Number{}.Clamp(1, 10, 5))
	assert.Equal(t, 10, Number{Value: 1e300, Set: true}.Clamp(1, 10, 5))
	assert.Equal(t, 1, Number{Value: -1e300, Set: true}.Clamp(1, 10, 5))
	assert.Equal(t, 5, Number{Value: 4.5, Set: true}.Clamp(1, 10, 5))
	assert.Equal(t, 85, Number{Value: 85.2, Set: true}.Clamp(0, 100, 0))
}
