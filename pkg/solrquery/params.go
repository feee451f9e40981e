package solrquery

import (
	"fmt"
	"strings"
)

// Param is a single local parameter attached to a leaf query.
type Param struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// LocalParams keeps local parameters in insertion order. Setting an existing key
// replaces its value in place.
type LocalParams []Param

func (p LocalParams) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

func (p *LocalParams) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Delete removes key, keeping the order of the remaining params.
func (p *LocalParams) Delete(key string) {
	out := (*p)[:0]
	for _, param := range *p {
		if param.Key != key {
			out = append(out, param)
		}
	}
	*p = out
}

func (p LocalParams) clone() LocalParams {
	if len(p) == 0 {
		return nil
	}
	out := make(LocalParams, len(p))
	copy(out, p)
	return out
}

// String renders the params as space-joined key='value' pairs.
func (p LocalParams) String() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, fmt.Sprintf("%s='%s'", param.Key, param.Value))
	}
	return strings.Join(parts, " ")
}

// quoteBreaking holds the characters that would end or escape the '...' of a local
// param or the "..." of _query_.
const quoteBreaking = `'"\`

func validateParamValue(key, value string) error {
	if strings.ContainsAny(value, quoteBreaking) {
		return fmt.Errorf("value of local param %s must not contain quotes or backslashes: %w", key, ErrInvalidArgument)
	}
	return nil
}

func validateParamKey(key string) error {
	if key == "" {
		return fmt.Errorf("local param key is empty: %w", ErrInvalidArgument)
	}
	if strings.ContainsAny(key, " \t\r\n={}$"+quoteBreaking) {
		return fmt.Errorf("local param key %q contains reserved characters: %w", key, ErrInvalidArgument)
	}
	if key == "v" {
		return fmt.Errorf("local param key %q is reserved for the placeholder: %w", key, ErrInvalidArgument)
	}
	return nil
}
