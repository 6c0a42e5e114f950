// Package schemas holds the contracts shared by the agent loop and its
// collaborators: observations, conversation entries, verdicts, and the
// interfaces for the page driver, the observation provider and the
// instruction oracle.
package schemas

import "fmt"

// Role identifies who authored a conversation entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one record of the conversation sent to the oracle. An entry
// carries either text or an image payload, never both.
type Entry struct {
	Role     Role   `json:"role"`
	Text     string `json:"text,omitempty"`
	Image    []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
}

// TextEntry builds a text entry for the given role.
func TextEntry(role Role, text string) Entry {
	return Entry{Role: role, Text: text}
}

// IsImage reports whether the entry carries an image payload.
func (e Entry) IsImage() bool { return len(e.Image) > 0 }

// Summary renders the entry for transcripts and logs. Image payloads are
// summarized by size.
func (e Entry) Summary() string {
	if e.IsImage() {
		return fmt.Sprintf("<%s image, %d bytes>", e.MIMEType, len(e.Image))
	}
	return e.Text
}

// ObservationMode selects how page state is rendered for the oracle. The
// mode is fixed for the lifetime of an agent.
type ObservationMode string

const (
	ObservationText  ObservationMode = "text"
	ObservationImage ObservationMode = "image"
)

// Valid reports whether the mode is one of the known modes.
func (m ObservationMode) Valid() bool {
	return m == ObservationText || m == ObservationImage
}

// Observation is one snapshot of a page. Identifiers in IDs are only
// meaningful for this snapshot; they are reassigned on every observation.
type Observation struct {
	Mode     ObservationMode `json:"mode"`
	Text     string          `json:"text,omitempty"`
	Image    []byte          `json:"-"`
	MIMEType string          `json:"mime_type,omitempty"`
	IDs      map[int]Locator `json:"ids"`
}

// Entry converts the observation into a user conversation entry.
func (o Observation) Entry() Entry {
	if o.Mode == ObservationImage {
		return Entry{Role: RoleUser, Image: o.Image, MIMEType: o.MIMEType}
	}
	return TextEntry(RoleUser, o.Text)
}

// Lookup resolves an identifier to its locator.
func (o Observation) Lookup(id int) (Locator, bool) {
	loc, ok := o.IDs[id]
	return loc, ok
}
