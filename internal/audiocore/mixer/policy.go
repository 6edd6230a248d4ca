package mixer

import (
	"strings"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// DurationPolicy decides how long the mixer keeps producing output
type DurationPolicy int

const (
	// Longest mixes while any input is active
	Longest DurationPolicy = iota
	// Shortest stops as soon as any linked input runs dry
	Shortest
	// First follows the input linked to slot 0
	First
)

func (p DurationPolicy) String() string {
	switch p {
	case Longest:
		return "longest"
	case Shortest:
		return "shortest"
	case First:
		return "first"
	default:
		return "unknown"
	}
}

// IsValid reports whether p is a known policy
func (p DurationPolicy) IsValid() bool {
	return p >= Longest && p <= First
}

// ParseDurationPolicy parses a policy name, ignoring case
func ParseDurationPolicy(s string) (DurationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "longest", "":
		return Longest, nil
	case "shortest":
		return Shortest, nil
	case "first":
		return First, nil
	}
	return Longest, errors.Newf("unknown duration policy %q", s).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("policy", s).
		Build()
}
