package actions

import (
	"errors"

	"github.com/pixil98/go-realm/internal/session"
)

var (
	ErrNoLocalUser     = session.ErrNoLocalUser
	ErrNoRoom          = errors.New("no room selected")
	ErrUnknownGood     = errors.New("unknown good")
	ErrUnknownFood     = errors.New("unknown food")
	ErrInsufficient    = errors.New("insufficient quantity")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidName     = errors.New("character name is required")
	ErrInvalidRate     = errors.New("tax rate must not exceed 1")
)
