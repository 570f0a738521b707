package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/relaykit/relay/schema"
)

func paramTool() Tool {
	return New("sample", "sample tool",
		func(ctx context.Context, args map[string]any) (any, error) { return args, nil },
		WithParam(ParamSpec{Name: "symbol", Type: TypeString, Required: true}),
		WithParam(ParamSpec{Name: "window", Type: TypeInteger, Default: 14}),
		WithParam(ParamSpec{Name: "verbose", Type: TypeBoolean}),
	)
}

func TestValidateRejectsUnknownArgument(t *testing.T) {
	_, err := ValidateArgs(paramTool(), map[string]any{"symbol": "BTC", "bogus": 1})
	if !errors.Is(err, schema.ErrUnknownArgument) {
		t.Fatalf("expected ErrUnknownArgument, got %v", err)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	got, err := ValidateArgs(paramTool(), map[string]any{"symbol": "BTC"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got["window"] != 14 {
		t.Fatalf("default not applied: %v", got["window"])
	}
	if _, present := got["verbose"]; present {
		t.Fatalf("optional without default should stay absent, got %v", got["verbose"])
	}
}

func TestValidateMissingRequired(t *testing.T) {
	_, err := ValidateArgs(paramTool(), map[string]any{"window": 5})
	if !errors.Is(err, schema.ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	// JSON numbers arrive as float64; 123 is not a string.
	_, err := ValidateArgs(paramTool(), map[string]any{"symbol": float64(123)})
	if !errors.Is(err, schema.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestValidateIntegerCoercion(t *testing.T) {
	got, err := ValidateArgs(paramTool(), map[string]any{"symbol": "ETH", "window": float64(21)})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got["window"] != 21 {
		t.Fatalf("integral float should coerce to int, got %T %v", got["window"], got["window"])
	}

	_, err = ValidateArgs(paramTool(), map[string]any{"symbol": "ETH", "window": 14.5})
	if !errors.Is(err, schema.ErrTypeMismatch) {
		t.Fatalf("fractional float must not coerce to integer, got %v", err)
	}
}

func TestValidateEnum(t *testing.T) {
	tool := New("enum", "enum tool",
		func(ctx context.Context, args map[string]any) (any, error) { return args, nil },
		WithParam(ParamSpec{Name: "side", Type: TypeString, Required: true, Enum: []string{"buy", "sell"}}),
	)

	if _, err := ValidateArgs(tool, map[string]any{"side": "buy"}); err != nil {
		t.Fatalf("valid enum rejected: %v", err)
	}
	_, err := ValidateArgs(tool, map[string]any{"side": "hold"})
	if !errors.Is(err, schema.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for enum miss, got %v", err)
	}
}

func TestDecodeArgs(t *testing.T) {
	var req struct {
		Symbol string `json:"symbol"`
		Window int    `json:"window"`
	}
	err := DecodeArgs(map[string]any{"symbol": "ETH", "window": 14}, &req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Symbol != "ETH" || req.Window != 14 {
		t.Fatalf("decode mismatch: %+v", req)
	}
}
