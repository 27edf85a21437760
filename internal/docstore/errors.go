package docstore

import (
	"fmt"

	"github.com/pixil98/go-realm/internal/remote"
)

var (
	ErrConflict = fmt.Errorf("%w: conflicts with stored document", remote.ErrRejected)
	ErrNegative = fmt.Errorf("%w: value may not become negative", remote.ErrRejected)
)
