// Package todo contains todo-related use cases.
package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// ValidationResult is the tagged outcome of parsing a bulk update payload:
// either a Batch or a non-empty list of FieldErrors.
type ValidationResult struct {
	Batch       entity.BulkUpdateBatch
	FieldErrors []domainerror.FieldError
}

// Valid reports whether the payload matched the schema.
func (r ValidationResult) Valid() bool {
	return len(r.FieldErrors) == 0
}

// bulkUpdateFields is the decoded payload prior to rule validation.
type bulkUpdateFields struct {
	Dirty   []int64 `json:"dirty" validate:"required,dive,gte=0"`
	Deleted []int64 `json:"deleted" validate:"required,dive,gte=0"`
}

var bulkValidator = newBulkValidator()

func newBulkValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseBulkUpdateBatch validates payload against {dirty: [int>=0], deleted: [int>=0]}.
// Duplicate ids inside one list are collapsed, keeping the first occurrence.
func ParseBulkUpdateBatch(payload []byte) ValidationResult {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		return ValidationResult{FieldErrors: []domainerror.FieldError{
			{Field: "body", Message: "must be a JSON object"},
		}}
	}

	var fields bulkUpdateFields
	var fieldErrors []domainerror.FieldError

	fields.Dirty, fieldErrors = decodeIDList("dirty", raw["dirty"], fieldErrors)
	fields.Deleted, fieldErrors = decodeIDList("deleted", raw["deleted"], fieldErrors)
	if len(fieldErrors) > 0 {
		return ValidationResult{FieldErrors: fieldErrors}
	}

	if err := bulkValidator.Struct(fields); err != nil {
		return ValidationResult{FieldErrors: toFieldErrors(err)}
	}

	return ValidationResult{Batch: entity.BulkUpdateBatch{
		Dirty:   dedupe(fields.Dirty),
		Deleted: dedupe(fields.Deleted),
	}}
}

// decodeIDList checks element types only. An absent or null list decodes to nil and is
// left for the "required" rule.
func decodeIDList(field string, raw json.RawMessage, fieldErrors []domainerror.FieldError) ([]int64, []domainerror.FieldError) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fieldErrors
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, append(fieldErrors, domainerror.FieldError{Field: field, Message: "must be an array of integers"})
	}

	ids := make([]int64, 0, len(elements))
	for i, element := range elements {
		id, ok := decodeInteger(element)
		if !ok {
			fieldErrors = append(fieldErrors, domainerror.FieldError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be an integer",
			})
			continue
		}
		ids = append(ids, id)
	}
	return ids, fieldErrors
}

func decodeInteger(raw json.RawMessage) (int64, bool) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return 0, false
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(number.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func toFieldErrors(err error) []domainerror.FieldError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []domainerror.FieldError{{Field: "body", Message: err.Error()}}
	}

	fieldErrors := make([]domainerror.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		message := "is invalid"
		switch fe.Tag() {
		case "required":
			message = "is required"
		case "gte":
			message = "must be a non-negative integer"
		}
		fieldErrors = append(fieldErrors, domainerror.FieldError{Field: fe.Field(), Message: message})
	}
	return fieldErrors
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
