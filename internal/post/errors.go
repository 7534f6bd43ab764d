package post

import "github.com/abduss/forum/internal/apperr"

var (
	ErrPostNotFound      = apperr.New(apperr.KindNotFound, "PostNotFound")
	ErrTitleCannotBeNull = apperr.New(apperr.KindInvalidInput, "TitleCannotBeNull")
	ErrBodyCannotBeNull  = apperr.New(apperr.KindInvalidInput, "BodyCannotBeNull")
)
