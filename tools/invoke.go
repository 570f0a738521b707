package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/relay/schema"
)

// Invocation wraps a tool outcome with execution metadata.
type Invocation struct {
	ID       string
	ToolName string
	Elapsed  time.Duration
	Result   *schema.Result
}

// Invoke validates the argument mapping and runs the tool handler.
// Handler faults, including panics, are caught at this boundary and
// converted into a failed Result so one tool cannot crash its caller.
// Validation failures never reach the handler.
func Invoke(ctx context.Context, t Tool, args map[string]any) *Invocation {
	inv := &Invocation{
		ID:       uuid.New().String(),
		ToolName: t.Name(),
	}

	normalized, err := ValidateArgs(t, args)
	if err != nil {
		inv.Result = schema.Fail(err)
		inv.Result.ToolName = t.Name()
		return inv
	}

	start := time.Now()
	data, err := runHandler(ctx, t, normalized)
	inv.Elapsed = time.Since(start)

	if err != nil {
		inv.Result = schema.Fail(schema.NewToolError(t.Name(), "execute",
			fmt.Errorf("%w: %v", schema.ErrToolExecution, err)))
	} else {
		inv.Result = schema.Ok(data)
	}
	inv.Result.ToolName = t.Name()
	inv.Result.ElapsedMS = inv.Elapsed.Milliseconds()
	return inv
}

// runHandler isolates handler panics.
func runHandler(ctx context.Context, t Tool, args map[string]any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}
