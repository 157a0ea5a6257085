package domain

import "errors"

var (
	ErrMissingParameters  = errors.New("missing parameters")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("insufficient privileges")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrInvalidValue       = errors.New("value is not valid")
	ErrInvalidCredentials = errors.New("wrong credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrMissingToken       = errors.New("missing authorization token")
	ErrRequestInProgress  = errors.New("request already in progress")
)
