package model

import "errors"

// ErrNoCurrentUser reports an operation that needs a signed-in user.
var ErrNoCurrentUser = errors.New("no current user")

// Result reports whether an operation that never returns an error succeeded.
// Err carries the reason when OK is false.
type Result struct {
	OK  bool
	Err error
}

// Success is the OK result.
func Success() Result { return Result{OK: true} }

// Failure wraps err into a failed result.
func Failure(err error) Result {
	if err == nil {
		err = errors.New("operation failed")
	}
	return Result{Err: err}
}

// Is reports whether the failure reason matches target.
func (r Result) Is(target error) bool {
	return !r.OK && errors.Is(r.Err, target)
}
