package image

import "github.com/abduss/forum/internal/apperr"

var (
	ErrFileCannotBeNull = apperr.New(apperr.KindInvalidInput, "FileCannotBeNull")
	ErrInvalidFileType  = apperr.New(apperr.KindInvalidInput, "InvalidFileType")
	ErrFileTooLarge     = apperr.New(apperr.KindInvalidInput, "FileTooLarge")
	ErrImageNotFound    = apperr.New(apperr.KindNotFound, "ImageNotFound")
	ErrFileNotDeleted   = apperr.New(apperr.KindFailed, "FileNotDeleted")
	ErrEntryNotDeleted  = apperr.New(apperr.KindFailed, "EntryNotDeleted")
)
