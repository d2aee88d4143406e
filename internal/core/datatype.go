package core

import (
	"strconv"
	"strings"
)

// DataType is the inferred type of a tracked value.
type DataType string

const (
	TypeNull       DataType = "null"
	TypeBoolean    DataType = "boolean"
	TypeIntegral   DataType = "integral"
	TypeFractional DataType = "fractional"
	TypeString     DataType = "string"
	TypeUnknown    DataType = "unknown"
)

// InferType classifies a tracked value. Strings are parsed: values that
// read as integers, floats, or booleans count as those types; the empty
// string counts as null. Unrecognized Go types count as unknown.
func InferType(value interface{}) DataType {
	if value == nil {
		return TypeNull
	}

	switch v := value.(type) {
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeIntegral
	case float32:
		return TypeFractional
	case float64:
		return TypeFractional
	case string:
		return inferStringType(v)
	default:
		return TypeUnknown
	}
}

func inferStringType(s string) DataType {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return TypeNull
	}
	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return TypeIntegral
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return TypeFractional
	}
	switch strings.ToLower(trimmed) {
	case "true", "false":
		return TypeBoolean
	}
	return TypeString
}

// NumericValue extracts a float64 from a value of integral or fractional
// type, including parseable strings. The second return reports success.
func NumericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// CanonicalString renders a value the way the frequent-items and cardinality
// sketches see it. The rendering is stable across runs so segment hashes and
// sketch contents are reproducible.
func CanonicalString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return "?"
	}
}
