package notification

import "github.com/abduss/forum/internal/apperr"

var (
	ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "NotificationNotFound")
	ErrContentCannotBeNull  = apperr.New(apperr.KindInvalidInput, "ContentCannotBeNull")
)
