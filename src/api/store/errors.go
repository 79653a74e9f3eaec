package store

import "errors"

// Every operation reports failures through one of these sentinels so
// the webserver can map them to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid community code")
	ErrAlreadyMember      = errors.New("already a member of this community")
	ErrAlreadyVoted       = errors.New("already voted on this proposal")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrRoleNotAllowed     = errors.New("role not allowed")
	ErrNoCommunity        = errors.New("no community selected")
)
