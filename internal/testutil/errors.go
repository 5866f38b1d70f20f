package testutil

import "fmt"

// Error is the failure a scripted MessageSource returns from Next.
type Error struct {
	Method string
	// Index is the zero-based Next call that failed.
	Index int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed at index %d", e.Method, e.Index)
}

// NewError reports an injected failure of method at call index.
func NewError(method string, index int) *Error {
	return &Error{Method: method, Index: index}
}
