package payment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseStamp extracts the correlated order or refund UUID from a
// gateway checkout stamp of the form "<uuid>_at_<timestamp>". The
// UUID is the substring before the first underscore. A missing or
// unparsable stamp is a fatal input: the caller must redirect to the
// generic failure URL without contacting any backend.
func ParseStamp(stamp string) (uuid.UUID, error) {
	if stamp == "" {
		return uuid.Nil, fmt.Errorf("%w: empty stamp", ErrInvalidStamp)
	}

	head := stamp
	if idx := strings.Index(stamp, "_"); idx >= 0 {
		head = stamp[:idx]
	}

	id, err := uuid.Parse(head)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidStamp, stamp)
	}

	return id, nil
}
