package schemas

import "context"

// ObservationProvider turns the current state of a page into an
// Observation.
type ObservationProvider interface {
	Describe(ctx context.Context, page Page) (Observation, error)
}

// Oracle maps a conversation to one raw structured response. The bundled
// clients are safe for concurrent use by independent runs.
type Oracle interface {
	Complete(ctx context.Context, conversation []Entry) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, conversation []Entry) (string, error)

// Complete calls f.
func (f OracleFunc) Complete(ctx context.Context, conversation []Entry) (string, error) {
	return f(ctx, conversation)
}
