package database

import (
	"errors"
	"fmt"
)

// ErrPersistence marks every failure coming out of the store
var ErrPersistence = errors.New("persistence error")

// PersistenceError wraps a failed store operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports ErrPersistence so callers can classify without a type switch
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
