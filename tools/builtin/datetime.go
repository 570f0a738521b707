package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/relaykit/relay/tools"
)

// CurrentTime returns a clock tool.
func CurrentTime() tools.Tool {
	return tools.New(
		"current_time",
		"Get the current date and time in a given IANA timezone",
		func(ctx context.Context, args map[string]any) (any, error) {
			var req struct {
				Timezone string `json:"timezone"`
			}
			if err := tools.DecodeArgs(args, &req); err != nil {
				return nil, err
			}
			loc, err := time.LoadLocation(req.Timezone)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q", req.Timezone)
			}
			now := time.Now().In(loc)
			return map[string]any{
				"timezone": req.Timezone,
				"rfc3339":  now.Format(time.RFC3339),
				"unix":     now.Unix(),
				"weekday":  now.Weekday().String(),
			}, nil
		},
		tools.WithParam(tools.ParamSpec{
			Name:        "timezone",
			Type:        tools.TypeString,
			Description: "IANA timezone name, e.g. UTC or America/New_York",
			Default:     "UTC",
		}),
		tools.WithRetryable(),
	)
}
