package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFenceTable(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":  `{"a":1}`,
		"```\n{\"a\":1}\n```":      `{"a":1}`,
		"  ```json {\"a\":1}```  ": `{"a":1}`,
		"```{\"a\":1}\n```":        `{"a":1}`,
		"Corrected: fine":          "Corrected: fine",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFence(in), in)
	}
}
