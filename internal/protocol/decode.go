package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/speckled/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode turns a raw oracle response into exactly one instruction. It
// checks shape only: whether an identifier exists on the page is decided
// at dispatch time against the observation then in effect. Decode never
// panics and has no side effects; every failure is a
// *MalformedInstructionError.
func Decode(raw string) (Instruction, error) {
	body, ok := llmutil.ExtractJSONObject(raw)
	if !ok {
		return nil, malformed(raw, "no JSON object found in response")
	}

	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, malformed(raw, "response is not a JSON object: %v", err)
	}
	d := fieldDecoder{raw: raw, fields: fields}

	tag, err := d.requiredString("type")
	if err != nil {
		return nil, err
	}
	thought, err := d.optionalString("thought")
	if err != nil {
		return nil, err
	}

	switch Kind(strings.ToLower(strings.TrimSpace(tag))) {
	case KindClick:
		id, err := d.id()
		if err != nil {
			return nil, err
		}
		double, err := d.optionalBool("double")
		if err != nil {
			return nil, err
		}
		return Click{ID: id, Double: double, Thought: thought}, nil

	case KindKeyInput:
		id, err := d.id()
		if err != nil {
			return nil, err
		}
		name, err := d.requiredString("key")
		if err != nil {
			return nil, err
		}
		key, ok := CanonicalKey(name)
		if !ok {
			return nil, malformed(raw, "key %q is not allowed (allowed: %s)", name, strings.Join(AllowedKeys(), ", "))
		}
		return KeyInput{ID: id, Key: key, Thought: thought}, nil

	case KindTextInput:
		id, err := d.id()
		if err != nil {
			return nil, err
		}
		text, err := d.requiredString("text")
		if err != nil {
			return nil, err
		}
		return TextInput{ID: id, Text: text, Thought: thought}, nil

	case KindComplete:
		success, err := d.requiredBool("success")
		if err != nil {
			return nil, err
		}
		explanation, err := d.requiredString("explanation")
		if err != nil {
			return nil, err
		}
		return Complete{Success: success, Explanation: explanation, Thought: thought}, nil
	}

	return nil, malformed(raw, "unknown instruction type %q", tag)
}

type fieldDecoder struct {
	raw    string
	fields map[string]jsoniter.RawMessage
}

// lookup returns the raw value of a field; JSON null counts as absent.
func (d fieldDecoder) lookup(name string) ([]byte, bool) {
	v, ok := d.fields[name]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

func (d fieldDecoder) requiredString(name string) (string, error) {
	v, ok := d.lookup(name)
	if !ok {
		return "", malformed(d.raw, "missing required field %q", name)
	}
	return d.decodeString(name, v)
}

func (d fieldDecoder) optionalString(name string) (string, error) {
	v, ok := d.lookup(name)
	if !ok {
		return "", nil
	}
	return d.decodeString(name, v)
}

func (d fieldDecoder) decodeString(name string, v []byte) (string, error) {
	if v[0] != '"' {
		return "", malformed(d.raw, "field %q must be a string", name)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", malformed(d.raw, "field %q: %v", name, err)
	}
	return s, nil
}

func (d fieldDecoder) requiredBool(name string) (bool, error) {
	v, ok := d.lookup(name)
	if !ok {
		return false, malformed(d.raw, "missing required field %q", name)
	}
	return d.decodeBool(name, v)
}

func (d fieldDecoder) optionalBool(name string) (bool, error) {
	v, ok := d.lookup(name)
	if !ok {
		return false, nil
	}
	return d.decodeBool(name, v)
}

func (d fieldDecoder) decodeBool(name string, v []byte) (bool, error) {
	switch string(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, malformed(d.raw, "field %q must be a boolean", name)
}

// id decodes the element identifier: a non-negative JSON integer.
func (d fieldDecoder) id() (int, error) {
	v, ok := d.lookup("id")
	if !ok {
		return 0, malformed(d.raw, "missing required field %q", "id")
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, malformed(d.raw, "field \"id\" must be an integer, got %s", v)
	}
	if n < 0 {
		return 0, malformed(d.raw, "field \"id\" must be non-negative, got %d", n)
	}
	return n, nil
}

// Encode renders an instruction in its canonical wire form. The agent
// records this form as the assistant entry of each completed step.
func Encode(inst Instruction) string {
	wire := map[string]any{"type": inst.Kind()}
	switch v := inst.(type) {
	case Click:
		wire["id"] = v.ID
		wire["double"] = v.Double
	case KeyInput:
		wire["id"] = v.ID
		wire["key"] = v.Key
	case TextInput:
		wire["id"] = v.ID
		wire["text"] = v.Text
	case Complete:
		wire["success"] = v.Success
		wire["explanation"] = v.Explanation
	}
	if t := inst.Reasoning(); t != "" {
		wire["thought"] = t
	}
	out, err := json.Marshal(wire)
	if err != nil {
		// Only strings, ints and bools are marshaled.
		panic(fmt.Sprintf("protocol: encode %s: %v", inst.Kind(), err))
	}
	return string(out)
}
