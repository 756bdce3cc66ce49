package link

import "errors"

var (
	// Validation errors
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrInvalidLinkID      = errors.New("invalid link ID")
	ErrInvalidType        = errors.New("invalid link type")
	ErrMissingName        = errors.New("link name is required")
	ErrNameTooLong        = errors.New("link name exceeds 100 characters")
	ErrMissingExternalRef = errors.New("link reference is required")
	ErrUnsupportedChain   = errors.New("unsupported chain for wallet link")

	// Address validation errors
	ErrInvalidAddress  = errors.New("invalid EVM address format (must be 0x followed by 40 hex characters)")
	ErrInvalidChecksum = errors.New("invalid EVM address checksum")

	// Repository errors
	ErrLinkNotFound       = errors.New("link not found")
	ErrDuplicateLink      = errors.New("this source is already linked")
	ErrUnauthorizedAccess = errors.New("unauthorized link access")
)
