package core

import (
	"strings"

	"gointegral/internal/errors"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one integration run in logs and metrics.
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// IsEmpty reports whether no run ID was assigned.
func (id RunID) IsEmpty() bool { return ID(id).IsEmpty() }

// NewRunID returns a time-ordered run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a caller-supplied run ID, which must be a UUID.
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.ValidationError("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.WithCode(errors.CodeValidationError, errors.Wrapf(err, "run ID %q is not a UUID", s))
	}
	return RunID(s), nil
}
