package comment

import "github.com/abduss/forum/internal/apperr"

var (
	ErrCommentNotFound  = apperr.New(apperr.KindNotFound, "CommentNotFound")
	ErrBodyCannotBeNull = apperr.New(apperr.KindInvalidInput, "BodyCannotBeNull")
	ErrPostLocked       = apperr.New(apperr.KindForbidden, "PostLocked")
)
