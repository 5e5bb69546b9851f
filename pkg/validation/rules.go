package validation

import (
	"github.com/go-playground/validator/v10"

	"equipment-system/internal/lifecycle"
	"equipment-system/pkg/constants"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("maintenance_frequency", isMaintenanceFrequency); err != nil {
		return err
	}
	if err := v.RegisterValidation("unit_status", isUnitStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("approval_decision", isApprovalDecision); err != nil {
		return err
	}
	return nil
}

func isMaintenanceFrequency(fl validator.FieldLevel) bool {
	_, ok := constants.ParseFrequency(fl.Field().String())
	return ok
}

func isUnitStatus(fl validator.FieldLevel) bool {
	_, ok := lifecycle.ParseStatus(fl.Field().String())
	return ok
}

func isApprovalDecision(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", constants.DecisionReturn, constants.DecisionDispose:
		return true
	}
	return false
}
