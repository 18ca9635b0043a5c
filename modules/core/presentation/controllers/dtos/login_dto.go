package dtos

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/shared"
)

type LoginDTO struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Ok reports the translated field errors, keyed by field name.
func (d *LoginDTO) Ok(ctx context.Context) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := shared.Validate.Struct(d)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["Username"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		field := base.T(ctx, fmt.Sprintf("Login.%s", err.Field()), err.Field())
		errorMessages[err.Field()] = base.T(ctx, fmt.Sprintf("ValidationErrors.%s", err.Tag()), "{{.Field}} is invalid", map[string]interface{}{
			"Field": field,
		})
	}
	return errorMessages, len(errorMessages) == 0
}
