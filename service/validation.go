package service

import (
	"errors"
	"fmt"

	"chiptable/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// minimumStake is the smallest entry fee a table accepts
var minimumStake = decimal.NewFromInt(1)

// validateParams runs struct tag validation and reports the first failing
// field as a models.ValidationError.
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return models.NewValidationError(fe.Field(), fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()))
		}
		return models.NewValidationError(fe.Field(), "failed "+fe.Tag())
	}
	return fmt.Errorf("%w: %v", models.ErrValidation, err)
}

// validateChipAmount requires a positive amount in whole hundredths of a chip
func validateChipAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.NewValidationError(field, "must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return models.NewValidationError(field, "must have at most two decimal places")
	}
	return nil
}
