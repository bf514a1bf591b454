package service

import (
	"errors"
	"fmt"

	"github.com/d60-Lab/relation-engine/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidState     = errors.New("invalid state")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyActed     = errors.New("already acted")
)

// ErrFollowSelf is kept distinct so callers can tell a self-follow from other invalid input.
var ErrFollowSelf = fmt.Errorf("%w: cannot follow self", ErrInvalidOperation)

var ErrSwipeSelf = fmt.Errorf("%w: cannot swipe self", ErrInvalidOperation)

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}

// mapNotFound turns repository.ErrNotFound into the service taxonomy and passes anything else through.
func mapNotFound(err error, what, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(what, id)
	}
	return err
}
