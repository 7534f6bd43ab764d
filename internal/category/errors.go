package category

import "github.com/abduss/forum/internal/apperr"

var (
	ErrCategoryNotFound  = apperr.New(apperr.KindNotFound, "CategoryNotFound")
	ErrNameCannotBeNull  = apperr.New(apperr.KindInvalidInput, "NameCannotBeNull")
	ErrCategoryNameTaken = apperr.New(apperr.KindConflict, "CategoryNameAlreadyTaken")
	ErrInvalidRole       = apperr.New(apperr.KindInvalidInput, "InvalidRole")
)
