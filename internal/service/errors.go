package service

import "errors"

// Domain errors returned by the services. Handlers classify them with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user with this college ID already exists")
	ErrExamNotFound       = errors.New("exam not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrAlreadySubmitted   = errors.New("exam has already been submitted")
	ErrNotExamOwner       = errors.New("exam belongs to another teacher")
	ErrInvalidQuestions   = errors.New("questions do not exist or belong to another subject")
)
