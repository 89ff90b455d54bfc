package render

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toValueMap converts the supported substitution forms into a map of cty
// values keyed by placeholder name.
func toValueMap(values any) (map[string]cty.Value, error) {
	switch v := values.(type) {
	case nil:
		return map[string]cty.Value{}, nil
	case cty.Value:
		if v.IsNull() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
			return nil, fmt.Errorf("substitution values must be an object or map, got %s", v.Type().FriendlyName())
		}
		return nonNil(v.AsValueMap()), nil
	case map[string]string:
		out := make(map[string]cty.Value, len(v))
		for k, s := range v {
			out[k] = cty.StringVal(s)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]cty.Value, len(v))
		for k, raw := range v {
			cv, err := toCtyValue(raw)
			if err != nil {
				return nil, fmt.Errorf("value for <%s>: %w", k, err)
			}
			out[k] = cv
		}
		return out, nil
	}

	rv := reflect.ValueOf(values)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return map[string]cty.Value{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("unsupported substitution values of type %T", values)
	}

	ty, err := gocty.ImpliedType(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("unable to infer cty.Type for %T: %w", values, err)
	}
	obj, err := gocty.ToCtyValue(rv.Interface(), ty)
	if err != nil {
		return nil, fmt.Errorf("unable to convert %T: %w", values, err)
	}
	return nonNil(obj.AsValueMap()), nil
}

// toCtyValue converts one map entry. Values cty cannot describe fall back
// to their fmt representation.
func toCtyValue(raw any) (cty.Value, error) {
	if cv, ok := raw.(cty.Value); ok {
		return cv, nil
	}
	if raw == nil {
		return cty.NullVal(cty.String), nil
	}
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.StringVal(fmt.Sprint(raw)), nil
	}
	return gocty.ToCtyValue(raw, ty)
}

// stringify renders a primitive cty value as placeholder text.
func stringify(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("value is null")
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is unknown")
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot render %s as text: %w", v.Type().FriendlyName(), err)
	}
	return s.AsString(), nil
}

func nonNil(m map[string]cty.Value) map[string]cty.Value {
	if m == nil {
		return map[string]cty.Value{}
	}
	return m
}
