package shared

import (
	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
)

var (
	Decoder  = form.NewDecoder()
	Validate = validator.New(validator.WithRequiredStructEnabled())
)
