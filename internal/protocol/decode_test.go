package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Variants(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected Instruction
	}{
		{
			name:     "single click",
			raw:      `{"type":"click","id":3}`,
			expected: Click{ID: 3},
		},
		{
			name:     "double click with thought",
			raw:      `{"type":"click","id":0,"double":true,"thought":"open the editor"}`,
			expected: Click{ID: 0, Double: true, Thought: "open the editor"},
		},
		{
			name:     "key input canonicalizes key name",
			raw:      `{"type":"key_input","id":7,"key":"enter"}`,
			expected: KeyInput{ID: 7, Key: "Enter"},
		},
		{
			name:     "text input",
			raw:      `{"type":"text_input","id":2,"text":"buy milk"}`,
			expected: TextInput{ID: 2, Text: "buy milk"},
		},
		{
			name:     "empty text is a valid fill",
			raw:      `{"type":"text_input","id":2,"text":""}`,
			expected: TextInput{ID: 2, Text: ""},
		},
		{
			name:     "complete",
			raw:      `{"type":"complete","success":true,"explanation":"done"}`,
			expected: Complete{Success: true, Explanation: "done"},
		},
		{
			name:     "tag is case insensitive",
			raw:      `{"type":"CLICK","id":1}`,
			expected: Click{ID: 1},
		},
		{
			name:     "unknown fields are ignored",
			raw:      `{"type":"click","id":1,"confidence":0.9}`,
			expected: Click{ID: 1},
		},
		{
			name:     "null optional field uses default",
			raw:      `{"type":"click","id":1,"double":null}`,
			expected: Click{ID: 1},
		},
		{
			name:     "fenced json",
			raw:      "Here you go:\n```json\n{\"type\":\"click\",\"id\":4}\n```",
			expected: Click{ID: 4},
		},
		{
			name:     "json surrounded by prose",
			raw:      `I will click the button. {"type":"click","id":5} That should work.`,
			expected: Click{ID: 5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, inst)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		reason string
	}{
		{"empty response", "", "no JSON object"},
		{"plain prose", "I think we are done here.", "no JSON object"},
		{"broken json", `{"type":"click","id":}`, "not a JSON object"},
		{"missing tag", `{"id":3}`, `missing required field "type"`},
		{"tag not a string", `{"type":1,"id":3}`, `field "type" must be a string`},
		{"unknown tag", `{"type":"scroll","id":3}`, `unknown instruction type "scroll"`},
		{"click missing id", `{"type":"click"}`, `missing required field "id"`},
		{"id as string", `{"type":"click","id":"3"}`, `field "id" must be an integer`},
		{"fractional id", `{"type":"click","id":3.5}`, `field "id" must be an integer`},
		{"negative id", `{"type":"click","id":-1}`, `must be non-negative`},
		{"double not a bool", `{"type":"click","id":3,"double":"yes"}`, `field "double" must be a boolean`},
		{"key missing", `{"type":"key_input","id":3}`, `missing required field "key"`},
		{"key not allowed", `{"type":"key_input","id":3,"key":"F5"}`, `key "F5" is not allowed`},
		{"text missing", `{"type":"text_input","id":3}`, `missing required field "text"`},
		{"text not a string", `{"type":"text_input","id":3,"text":42}`, `field "text" must be a string`},
		{"complete missing success", `{"type":"complete","explanation":"x"}`, `missing required field "success"`},
		{"complete missing explanation", `{"type":"complete","success":false}`, `missing required field "explanation"`},
		{"success as string", `{"type":"complete","success":"true","explanation":"x"}`, `field "success" must be a boolean`},
		{"thought not a string", `{"type":"click","id":1,"thought":[]}`, `field "thought" must be a string`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := Decode(tc.raw)
			require.Error(t, err)
			assert.Nil(t, inst)

			var mErr *MalformedInstructionError
			require.True(t, errors.As(err, &mErr), "expected MalformedInstructionError, got %T", err)
			assert.Equal(t, tc.raw, mErr.Raw)
			assert.Contains(t, mErr.Reason, tc.reason)
			assert.ErrorIs(t, err, ErrMalformedInstruction)
		})
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	instructions := []Instruction{
		Click{ID: 1, Double: true},
		KeyInput{ID: 2, Key: "Tab", Thought: "move focus"},
		TextInput{ID: 3, Text: `say "hi"`},
		Complete{Success: false, Explanation: "no todo list visible"},
	}
	for _, inst := range instructions {
		decoded, err := Decode(Encode(inst))
		require.NoError(t, err)
		assert.Equal(t, inst, decoded)
	}
}

func TestEncode_CanonicalForm(t *testing.T) {
	assert.JSONEq(t, `{"type":"text_input","id":3,"text":"milk"}`, Encode(TextInput{ID: 3, Text: "milk"}))
	assert.JSONEq(t, `{"type":"complete","success":true,"explanation":"ok"}`, Encode(Complete{Success: true, Explanation: "ok"}))
}

func TestCanonicalKey(t *testing.T) {
	key, ok := CanonicalKey("  arrowDown ")
	assert.True(t, ok)
	assert.Equal(t, "ArrowDown", key)

	_, ok = CanonicalKey("Meta")
	assert.False(t, ok)

	keys := AllowedKeys()
	assert.Contains(t, keys, "Enter")
	assert.Contains(t, keys, "Tab")
	assert.IsIncreasing(t, keys)
}
