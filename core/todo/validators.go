package todo

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tododesk/core"
)

var (
	statusTag  = "todostatus"
	statusText = "status must be one of pending, in_progress or completed"

	priorityTag  = "todopriority"
	priorityText = "priority must be one of low, medium, high or critical"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)

	_ = core.Validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(priorityTag, priorityText)
}

// statusValidation only allows the statuses a user may set; overdue is computed remotely.
func statusValidation(fl validator.FieldLevel) bool {
	s := Status(fl.Field().String())
	for _, es := range EditableStatuses {
		if s == es {
			return true
		}
	}
	return false
}

func priorityValidation(fl validator.FieldLevel) bool {
	p := Priority(fl.Field().String())
	for _, ap := range Priorities {
		if p == ap {
			return true
		}
	}
	return false
}
