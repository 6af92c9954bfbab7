package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs decodes content into T. Strings are returned as-is, other
// scalars are converted with strconv, and everything else is decoded as JSON.
//
// JSON that fails to decode is repaired with jsonrepair and decoded again.
// This recovers the usual defects of model-produced arguments: unquoted keys,
// single quotes, trailing commas and objects cut off by an interrupted stream.
//
// Example usage:
//
//	type Args struct {
//	    City string `json:"city"`
//	}
//
//	args, err := ParseStringAs[Args](`{"city": "Rome"`) // repaired
//	n, err := ParseStringAs[int]("42")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil

	case reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if err := parseScalar(target, strings.TrimSpace(content)); err != nil {
			return result, err
		}
		return result, nil
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repairedJSON, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	var repaired T
	if err = json.Unmarshal([]byte(repairedJSON), &repaired); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (content: %s)", result, err, TruncateString(content, DefaultMaxStringLength))
	}
	return repaired, nil
}

// parseScalar sets target from a textual scalar.
func parseScalar(target reflect.Value, content string) error {
	switch target.Kind() {
	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(val)

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(val)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(content, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as uint: %w", err)
		}
		target.SetUint(val)

	default:
		val, err := strconv.ParseInt(content, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(val)
	}
	return nil
}
