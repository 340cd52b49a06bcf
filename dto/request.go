package dto

import (
	"errors"
	"mime/multipart"
)

// Expense categories the downstream sheet understands.
const (
	CategoryFood          = "Food"
	CategoryTravel        = "Travel"
	CategoryMiscellaneous = "Miscellaneous"
)

var (
	ErrMissingFile     = errors.New("a receipt file is required")
	ErrUnknownCategory = errors.New("unknown expense category")
)

// ExtractRequest is one uploaded receipt plus the caller-supplied metadata
// that is passed through untouched to the record-keeping collaborator.
type ExtractRequest struct {
	File     *multipart.FileHeader
	Category string
	Purpose  string
}

// Validate performs basic validation on the request
func (r *ExtractRequest) Validate() error {
	if r.File == nil {
		return ErrMissingFile
	}
	switch r.Category {
	case "", CategoryFood, CategoryTravel, CategoryMiscellaneous:
		return nil
	}
	return ErrUnknownCategory
}
