// Modeled on https://github.com/kubernetes/apimachinery/blob/455a99f/pkg/util/intstr/intstr.go

package multitype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a type that can hold an int, a float or a string. When used in
// JSON or YAML marshalling and unmarshalling, it produces or consumes the
// inner type. Metrics use it so a single mapping can carry line counts,
// byte limits and version strings side by side.
type Value struct {
	Type     ValueType `json:"-"`
	IntVal   int64     `json:"-"`
	FloatVal float64   `json:"-"`
	StrVal   string    `json:"-"`
}

// ValueType represents the stored type of Value.
type ValueType int

const (
	String ValueType = iota // The Value holds a string.
	Int                     // The Value holds an int.
	Float                   // The Value holds a float.
)

// FromInt creates a Value object with an int value.
func FromInt(val int64) Value {
	return Value{Type: Int, IntVal: val}
}

// FromFloat creates a Value object with a float value.
func FromFloat(val float64) Value {
	return Value{Type: Float, FloatVal: val}
}

// FromString creates a Value object with a string value.
func FromString(val string) Value {
	return Value{Type: String, StrVal: val}
}

// FromNumber creates an int Value when the number is integral and a float Value otherwise.
func FromNumber(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return FromInt(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q", n.String())
	}
	return FromFloat(f), nil
}

// IsNumeric reports whether the value holds an int or a float.
func (v Value) IsNumeric() bool {
	return v.Type == Int || v.Type == Float
}

// Float64 returns the numeric value as a float. Strings yield 0.
func (v Value) Float64() float64 {
	switch v.Type {
	case Int:
		return float64(v.IntVal)
	case Float:
		return v.FloatVal
	default:
		return 0
	}
}

// String returns the value the way it is printed in reports.
func (v Value) String() string {
	switch v.Type {
	case Int:
		return strconv.FormatInt(v.IntVal, 10)
	case Float:
		return strconv.FormatFloat(v.FloatVal, 'f', -1, 64)
	default:
		return v.StrVal
	}
}

// UnmarshalJSON implements the json.Unmarshaller interface.
func (v *Value) UnmarshalJSON(value []byte) error {
	if v == nil {
		return nil
	}
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return fmt.Errorf("empty value")
	}
	if value[0] == '"' {
		v.Type = String
		return json.Unmarshal(value, &v.StrVal)
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		return err
	}
	parsed, err := FromNumber(n)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements the json.Marshaller interface.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case Int:
		return json.Marshal(v.IntVal)
	case Float:
		return json.Marshal(v.FloatVal)
	case String:
		return json.Marshal(v.StrVal)
	default:
		return []byte{}, fmt.Errorf("impossible Value.Type")
	}
}

// MarshalYAML implements the yaml.Marshaller interface https://godoc.org/gopkg.in/yaml.v3#Marshaler
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Type {
	case Int:
		return v.IntVal, nil
	case Float:
		return v.FloatVal, nil
	case String:
		return v.StrVal, nil
	default:
		return nil, fmt.Errorf("impossible Value.Type")
	}
}
