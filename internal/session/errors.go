package session

import "errors"

var ErrNoLocalUser = errors.New("no local user")
