package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/finlit/finlit-api/internal/platform/validate"
)

// MaxBodyBytes bounds request bodies; import batches are the largest.
const MaxBodyBytes = 4 << 20

// ErrInvalidBody is returned for bodies that are not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// Validate is the request validator. Field errors name JSON fields.
var Validate = validate.New()

// DecodeJSON decodes the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// ReadBody returns the raw request body, for payloads decoded item by item.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return raw, nil
}

// ValidateRequest validates v with the struct tags and returns
// domain.ValidationErrors keyed by JSON field path.
func ValidateRequest(v any) error {
	if err := Validate.Struct(v); err != nil {
		return validate.FieldErrors(err).Err()
	}
	return nil
}

// DecodeAndValidate decodes the body into v and validates it.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) error {
	if err := DecodeJSON(w, r, v); err != nil {
		return err
	}
	return ValidateRequest(v)
}
