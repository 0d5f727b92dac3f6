package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("operation not permitted")
	ErrAlreadyPurchased   = errors.New("lead already purchased by buyer")
	ErrCapReached         = errors.New("lead buyer cap reached")
	ErrInvalidLead        = errors.New("invalid lead")
)
