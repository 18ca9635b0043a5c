package dtos

// KindDTO is posted by the resource type cards of the first step.
type KindDTO struct {
	Kind string `form:"kind" validate:"required,oneof=users teams"`
}

// IDDTO carries the id of the row or role a toggle applies to.
type IDDTO struct {
	ID int `form:"id" validate:"required,min=1"`
}

// StepDTO is posted by the step navigation.
type StepDTO struct {
	Step int `form:"step" validate:"required,min=1"`
}

// SearchDTO filters the resource list, an empty value clears the filter.
type SearchDTO struct {
	Key   string `form:"key" validate:"required"`
	Value string `form:"value"`
}
