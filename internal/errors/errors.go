package errors

import "errors"

var (
	ErrJobNameRequired    = errors.New("GLUE_JOB_NAME environment variable is required")
	ErrEntryPointNotFound = errors.New("entry point not found in source folder")
	ErrItemNotFound       = errors.New("item not found")
	ErrSecretFileNotFound = errors.New("secret file not found")
)
