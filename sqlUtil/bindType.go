package sqlUtil

import (
	"encoding/json"
	"strings"
	"time"
)

// BindType is the parameter type hint handed to the store with each value.
type BindType int

const (
	BindNull BindType = iota
	BindString
	BindInt
	BindFloat
	BindBool
)

func (b BindType) String() string {
	switch b {
	case BindNull:
		return "null"
	case BindString:
		return "string"
	case BindInt:
		return "int"
	case BindFloat:
		return "float"
	case BindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// BindTypeOf infers the bind type from a decoded JSON or scanned value.
func BindTypeOf(value interface{}) BindType {
	switch v := value.(type) {
	case nil:
		return BindNull
	case bool:
		return BindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return BindInt
	case float32, float64:
		return BindFloat
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return BindFloat
		}
		return BindInt
	case string, []byte, time.Time:
		return BindString
	default:
		return BindString
	}
}

// ConvertValue turns a value into what database/sql expects for its bind type.
// json.Number is resolved to int64 or float64, falling back to the literal
// text when it does not fit.
func ConvertValue(value interface{}, bindType BindType) interface{} {
	n, ok := value.(json.Number)
	if !ok {
		return value
	}
	switch bindType {
	case BindInt:
		if i, err := n.Int64(); err == nil {
			return i
		}
		return n.String()
	case BindFloat:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return n.String()
}
