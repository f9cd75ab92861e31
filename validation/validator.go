package validation

import (
	"strings"

	"github.com/kbukum/kravl/errors"
)

// FieldError is a failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors.
type Validator struct {
	errs []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failure on field.
func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Check records message on field unless ok holds.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Merge folds err into v. Field errors produced by Struct keep their
// fields, prefixed with prefix; any other error is recorded under prefix.
func (v *Validator) Merge(prefix string, err error) *Validator {
	if err == nil {
		return v
	}
	var e *errors.Error
	if errors.As(err, &e) {
		if fields, ok := e.Details["fields"].([]FieldError); ok {
			for _, f := range fields {
				v.AddError(join(prefix, f.Field), f.Message)
			}
			return v
		}
		v.AddError(prefix, e.Message)
		return v
	}
	v.AddError(prefix, err.Error())
	return v
}

// Errors returns the collected failures.
func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Err returns nil when nothing failed, else a CodeInvalidInput error whose
// "fields" detail holds the failures.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errs))
	for i, f := range v.errs {
		msgs[i] = f.Field + ": " + f.Message
	}
	return errors.New(errors.CodeInvalidInput, strings.Join(msgs, "; ")).
		WithDetail("fields", v.errs)
}

func join(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}
