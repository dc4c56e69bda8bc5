package config

import (
	"sync"

	"github.com/grovetools/br0wse/schema"
)

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

// schemaValidator returns the validator for the reflected Config schema.
func schemaValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = err
			return
		}
		validator, validatorErr = schema.NewValidator("br0wse.schema.json", data)
	})
	return validator, validatorErr
}
