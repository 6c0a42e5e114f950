// Package protocol defines the instruction protocol spoken between the
// agent loop and the instruction oracle: a closed set of instruction
// variants, a strict decoder for raw oracle responses, and the fixed
// system prompt that teaches the oracle the wire format.
package protocol

// Kind is the wire tag of an instruction variant.
type Kind string

const (
	KindClick     Kind = "click"
	KindKeyInput  Kind = "key_input"
	KindTextInput Kind = "text_input"
	KindComplete  Kind = "complete"
)

// Instruction is one decoded oracle instruction. The set of
// implementations is closed: Click, KeyInput, TextInput and Complete.
type Instruction interface {
	Kind() Kind
	// Reasoning returns the oracle's optional free-text thought.
	Reasoning() string
	sealed()
}

// Targeted is implemented by every instruction that acts on an element.
type Targeted interface {
	Instruction
	Target() int
}

// Click clicks, or double-clicks, the element with the given identifier.
type Click struct {
	ID      int
	Double  bool
	Thought string
}

// KeyInput focuses an element and presses a single allow-listed key.
type KeyInput struct {
	ID      int
	Key     string
	Thought string
}

// TextInput fills an element with text.
type TextInput struct {
	ID      int
	Text    string
	Thought string
}

// Complete ends the run with the oracle's verdict.
type Complete struct {
	Success     bool
	Explanation string
	Thought     string
}

func (Click) Kind() Kind     { return KindClick }
func (KeyInput) Kind() Kind  { return KindKeyInput }
func (TextInput) Kind() Kind { return KindTextInput }
func (Complete) Kind() Kind  { return KindComplete }

func (c Click) Reasoning() string     { return c.Thought }
func (k KeyInput) Reasoning() string  { return k.Thought }
func (t TextInput) Reasoning() string { return t.Thought }
func (c Complete) Reasoning() string  { return c.Thought }

func (c Click) Target() int     { return c.ID }
func (k KeyInput) Target() int  { return k.ID }
func (t TextInput) Target() int { return t.ID }

func (Click) sealed()     {}
func (KeyInput) sealed()  {}
func (TextInput) sealed() {}
func (Complete) sealed()  {}

var (
	_ Targeted    = Click{}
	_ Targeted    = KeyInput{}
	_ Targeted    = TextInput{}
	_ Instruction = Complete{}
)
