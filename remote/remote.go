// Package remote defines the calling contract for the authoritative remote
// cache service.
//
// The orchestrator treats the service as the source of truth: it lists
// entries for a scope and matches by display name, or registers new cached
// content. Implementations live in subpackages (see remote/google); the
// orchestrator only depends on the Gateway interface.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/message"
)

// Entry references content held by the remote service.
type Entry struct {
	// Name is the opaque handle, e.g.
	// "projects/acme/locations/global/cachedContents/123".
	Name string

	// ExpireTime is when the service will discard the entry.
	// Zero when the service did not report one.
	ExpireTime time.Time
}

// CreateInput carries everything needed to register new cached content.
type CreateInput struct {
	Model       string
	Messages    []message.Message
	Tools       any
	TTL         time.Duration
	DisplayName string // the content key; used for later lookup by name
}

// Gateway is the narrow interface to the remote cache service. Both calls
// perform network I/O and must honor ctx deadlines and cancellation.
type Gateway interface {
	// LookupByName lists entries for scope and returns the one whose
	// display name equals contentKey. ok=false when nothing matches.
	LookupByName(ctx context.Context, scope cachekey.Scope, contentKey string) (e Entry, ok bool, err error)

	// Create registers new cached content and returns its handle.
	Create(ctx context.Context, scope cachekey.Scope, in CreateInput) (Entry, error)
}

// Error is a status-coded failure from the remote service.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote cache: status %d: %s", e.StatusCode, e.Message)
}

// PermissionDenied reports whether the service refused access. The
// orchestrator treats these lookups as misses, not failures.
func (e *Error) PermissionDenied() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsPermissionDenied reports whether err is a permission-denied Error.
func IsPermissionDenied(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.PermissionDenied()
}
