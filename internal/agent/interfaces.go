// internal/agent/interfaces.go
package agent

import (
	"context"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// ActionDispatcher carries out one non-terminal instruction on a driver.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, driver schemas.Driver, inst protocol.Instruction, obs schemas.Observation) error
}
