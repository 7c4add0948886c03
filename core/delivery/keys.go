package delivery

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/assetmail/core/storage"
)

// KeyPolicy decides which object keys a caller may reference.
type KeyPolicy struct {
	// EnforceTenancy requires keys under users/<subject>/.
	EnforceTenancy bool
	// AllowedPrefixes is consulted when tenancy is not enforced.
	AllowedPrefixes []string
}

// Validate checks key for subject without touching storage.
func (p KeyPolicy) Validate(key, subject string) error {
	if key == "" || strings.HasPrefix(key, "/") || storage.HasTraversal(key) {
		return newError(KindInvalidKey, fmt.Sprintf("invalid key %q", key), nil)
	}

	if p.EnforceTenancy {
		if subject == "" || strings.Contains(subject, "/") {
			return newError(KindForbidden, fmt.Sprintf("key %q is outside the caller's namespace", key), nil)
		}
		if !strings.HasPrefix(key, "users/"+subject+"/") {
			return newError(KindForbidden, fmt.Sprintf("key %q is outside the caller's namespace", key), nil)
		}
		return nil
	}

	for _, prefix := range p.AllowedPrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return newError(KindInvalidKey, fmt.Sprintf("key %q is not under an allowed prefix", key), nil)
}
