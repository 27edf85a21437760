package player

import "errors"

var (
	ErrExpectedHello        = errors.New("expected hello")
	ErrNoOwner              = errors.New("owner is required")
	ErrUnknownRoom          = errors.New("unknown room")
	ErrCharacterUnavailable = errors.New("character not found or not owned")
	ErrUnknownIntent        = errors.New("unknown intent")
	ErrNothingToInteract    = errors.New("nothing to interact with")
	ErrNotPermitted         = errors.New("not permitted for this role")
)
