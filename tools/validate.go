package tools

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"

	"github.com/relaykit/relay/schema"
)

// ValidateArgs checks a raw argument mapping against the tool's
// parameter declarations and returns the normalized mapping the handler
// will see. The order is fixed: unknown names are rejected first, then
// defaults fill in, then required parameters are enforced, then each
// value is coerced to its declared type.
func ValidateArgs(t Tool, args map[string]any) (map[string]any, error) {
	specs := t.Params()
	byName := make(map[string]ParamSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	for name := range args {
		if _, ok := byName[name]; !ok {
			return nil, schema.NewValidationError(name, args[name], schema.ErrUnknownArgument,
				fmt.Sprintf("tool %s accepts no argument %q", t.Name(), name))
		}
	}

	normalized := make(map[string]any, len(specs))
	for _, spec := range specs {
		value, supplied := args[spec.Name]
		if !supplied {
			if spec.Default != nil {
				normalized[spec.Name] = spec.Default
				continue
			}
			if spec.Required {
				return nil, schema.NewValidationError(spec.Name, nil, schema.ErrMissingArgument,
					fmt.Sprintf("tool %s requires argument %q", t.Name(), spec.Name))
			}
			continue
		}

		coerced, err := coerceValue(spec, value)
		if err != nil {
			return nil, err
		}
		normalized[spec.Name] = coerced
	}

	return normalized, nil
}

// coerceValue converts a model-supplied value to the declared semantic
// type. JSON decoding produces float64 for every number, so integral
// floats are accepted for integer parameters; everything else is strict.
func coerceValue(spec ParamSpec, value any) (any, error) {
	mismatch := func() error {
		return schema.NewValidationError(spec.Name, value, schema.ErrTypeMismatch,
			fmt.Sprintf("expected %s, got %T", spec.Type, value))
	}

	switch spec.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch()
		}
		if len(spec.Enum) > 0 && !containsString(spec.Enum, s) {
			return nil, schema.NewValidationError(spec.Name, value, schema.ErrTypeMismatch,
				fmt.Sprintf("value %q not in enum %v", s, spec.Enum))
		}
		return s, nil

	case TypeInteger:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, mismatch()
			}
			return int(v), nil
		default:
			return nil, mismatch()
		}

	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, mismatch()
		}

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch()
		}
		return b, nil

	case TypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, mismatch()
		}
		return m, nil

	case TypeArray:
		a, ok := value.([]any)
		if !ok {
			return nil, mismatch()
		}
		return a, nil

	default:
		return nil, schema.NewValidationError(spec.Name, value, schema.ErrTypeMismatch,
			fmt.Sprintf("unsupported parameter type %q", spec.Type))
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// DecodeArgs maps a validated argument mapping onto a typed request
// struct. Handlers use it to avoid hand-written type switches.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: false,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}
