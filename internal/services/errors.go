package services

import "errors"

// Service-level sentinel errors. Handlers map these onto HTTP statuses.
var (
	ErrValidation         = errors.New("validation failed")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrLotNotFound        = errors.New("lot not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrBatchNotFound      = errors.New("production batch not found")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInsufficientStock  = errors.New("insufficient stock in lot")
	ErrAlreadyVoided      = errors.New("record is already voided")
	ErrInUse              = errors.New("record is referenced by other data")
	ErrExtractionFailed   = errors.New("document extraction failed")
)
