// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/validate"
)

// ErrEmptyBody is returned when the request carried no JSON document at all.
var ErrEmptyBody = errors.New("request body is empty")

func maxBodyBytes() int64 {
	n := int64(config.GetInt("MAX_BODY_BYTES", 4<<20))
	if n <= 0 {
		return 4 << 20
	}
	return n
}

// JSON decodes r.Body into dest and runs validation.
//
//	(errs, nil)  validation failures
//	(nil, err)   malformed, empty or oversized body
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if fields, ok := FieldErrors(err); ok {
			return fields, nil
		}
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if errs = validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// FieldErrors turns a decode error caused by a wrongly typed field into a
// validation map. A well-formed document with a bad field type is a
// validation failure, not a syntax error.
func FieldErrors(err error) (map[string]string, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil, false
	}
	return map[string]string{
		typeErr.Field: fmt.Sprintf("The %s field must be of type %s.", typeErr.Field, jsonType(typeErr.Type.Kind())),
	}, true
}

func jsonType(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return "object"
}
