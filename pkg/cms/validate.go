package cms

import (
	"github.com/Sternrassler/cms-client/pkg/client"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// requireID fails with a VALIDATION_ERROR when value is blank.
func requireID(field, value string) error {
	if err := validation.Validate(value, validation.Required); err != nil {
		return client.WrapValidation(validation.Errors{field: err}, field+" is required")
	}
	return nil
}

// validateInput runs the input's own validation rules.
func validateInput(in validation.Validatable, what string) error {
	return client.WrapValidation(in.Validate(), "invalid "+what)
}
