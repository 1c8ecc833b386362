package ctxcache

import (
	"fmt"

	"github.com/unkn0wn-root/ctxcache/cachekey"
)

// OpError wraps a remote gateway failure with the operation and scoped key
// it happened under. Unwrap exposes the gateway error, so callers can still
// match remote.Error with errors.As.
type OpError struct {
	Op  string // "lookup" or "create"
	Key cachekey.Key
	Err error
}

func (e *OpError) Error() string {
	s := e.Key.Scope
	return fmt.Sprintf("ctxcache: %s for %s/%s/%s content %.16s: %v",
		e.Op, s.Provider, s.Project, s.Location, e.Key.Content, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
