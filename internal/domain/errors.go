package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("not allowed to perform this action")

	ErrAlreadyMember   = errors.New("user is already a member of the project")
	ErrProjectInactive = errors.New("project is not accepting new members")

	ErrUpstream   = errors.New("upstream commit api failed")
	ErrValidation = errors.New("validation failed")
)
