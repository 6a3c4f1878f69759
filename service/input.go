package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	FieldBody  = "body"
	FieldValue = "value"
)

// Input is a decoded prediction request.
type Input struct {
	Value float64
	// Raw is the number exactly as the caller sent it.
	Raw json.Number
}

// MissingFieldError reports a required key absent from the request.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// DecodeInput parses a request body of the form {"value": <number>}.
// A missing key yields *MissingFieldError; any other problem a plain error.
func DecodeInput(body string) (Input, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Input{}, fmt.Errorf("request body must be a JSON object, got %s", typeErr.Value)
		}
		return Input{}, err
	}
	if fields == nil {
		return Input{}, errors.New("request body must be a JSON object, got null")
	}

	raw, ok := fields[FieldValue]
	if !ok {
		return Input{}, &MissingFieldError{Field: FieldValue}
	}
	return decodeValue(raw)
}

func decodeValue(raw json.RawMessage) (Input, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	token, err := dec.Token()
	if err != nil {
		return Input{}, err
	}

	number, ok := token.(json.Number)
	if !ok {
		return Input{}, fmt.Errorf("field %q must be a number, got %s", FieldValue, describeToken(token))
	}
	value, err := number.Float64()
	if err != nil {
		return Input{}, fmt.Errorf("field %q: %w", FieldValue, err)
	}
	return Input{Value: value, Raw: number}, nil
}

func describeToken(token json.Token) string {
	switch t := token.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Delim:
		if t == '{' {
			return "object"
		}
		return "array"
	default:
		return fmt.Sprintf("%T", t)
	}
}
