package schemagate

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"simtax-adapter/internal/apperr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their wire name so errors read "MissingField:applicationDate".
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// CheckComplete rejects a record whose required fields are still unset.
// Only the first missing field is reported.
func CheckComplete(record any) error {
	err := instance().Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.MissingField(fieldErrs[0].Field())
	}
	return apperr.Wrap(apperr.CodeInternal, http.StatusInternalServerError, "record validation failed", err)
}

// Rejection records a rejected message or a discarded part of one.
type Rejection struct {
	Scope  string         `json:"scope"`  // e.g. "message:Lk01-BGB" or "grievance:3"
	Code   string         `json:"code"`   // apperr code, empty for dropped groups
	Reason string         `json:"reason"` // e.g. "grievance group has no codeGriefSoort"
	Status int            `json:"status,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}

// FromError turns a failed message into a rejection entry.
func FromError(scope string, err error) Rejection {
	e := apperr.From(err)
	return Rejection{
		Scope:  scope,
		Code:   e.Code,
		Reason: e.Message,
		Status: e.Status,
		Detail: e.Details,
	}
}
