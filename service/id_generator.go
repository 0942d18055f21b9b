package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	IDFormatShort = "short"
	IDFormatULID  = "ulid"
)

// IDGenerator issues certificate identifiers. Implementations must be safe
// for concurrent use and must not rely on shared counters.
type IDGenerator interface {
	NewID() string
}

// ShortIDGenerator returns the first eight hex digits of a random UUID in
// upper case, e.g. "3F2A9C1B".
type ShortIDGenerator struct{}

func (ShortIDGenerator) NewID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// ULIDGenerator returns lexicographically sortable 26 character identifiers.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}

// NewIDGenerator picks a generator by its configured format name.
func NewIDGenerator(format string) (IDGenerator, error) {
	switch format {
	case "", IDFormatShort:
		return ShortIDGenerator{}, nil
	case IDFormatULID:
		return ULIDGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown id format %q", format)
}
