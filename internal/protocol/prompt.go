package protocol

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/speckled/api/schemas"
)

const basePrompt = `You are a QA engineer executing an end-to-end test against a live web page.
You receive a natural-language test specification, then a sequence of page observations.
After each observation respond with exactly ONE JSON object describing the next step.`

const textObservationPrompt = `
Observations are text renderings of the page. Interactive elements carry a tag in front of them:
  [#N] a clickable element, [$N] a text-entry control (its current value is shown), [@N] a link.
N is the element identifier. Identifiers are reassigned on every observation: only use identifiers
from the most recent observation.`

const imageObservationPrompt = `
Observations are screenshots of the page. Interactive elements carry a small label with their
identifier N. Identifiers are reassigned on every observation: only use identifiers from the most
recent screenshot.`

const instructionsPrompt = `
Available instructions:
  {"type": "click", "id": N, "double": false}          click element N (set "double": true to double-click)
  {"type": "key_input", "id": N, "key": "<KEY>"}        focus element N and press one key
  {"type": "text_input", "id": N, "text": "<TEXT>"}     fill element N with TEXT; Enter is pressed afterwards
  {"type": "complete", "success": true|false, "explanation": "<WHY>"}
                                                         finish the test with your verdict
Allowed keys: %s.
You may add a "thought" string field to any instruction.
Use "complete" as soon as the specification is verified (success true) or clearly cannot be satisfied
(success false). Respond with the JSON object only, no markdown and no prose.`

// SystemPrompt returns the fixed protocol instructions for the given
// observation mode.
func SystemPrompt(mode schemas.ObservationMode) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	if mode == schemas.ObservationImage {
		sb.WriteString(imageObservationPrompt)
	} else {
		sb.WriteString(textObservationPrompt)
	}
	sb.WriteString(fmt.Sprintf(instructionsPrompt, strings.Join(AllowedKeys(), ", ")))
	return sb.String()
}

// SpecPrompt renders the test specification as the opening user message.
func SpecPrompt(description string) string {
	return fmt.Sprintf("Test specification: %s", strings.TrimSpace(description))
}
