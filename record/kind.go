// Package record defines the three synthetic record shapes written by the
// benchmark, their random generators and the static schema definitions the
// store is given for each of them.
package record

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownKind = errors.New("unknown record kind")

// Kind selects one of the record shapes.
type Kind int

const (
	KindSmall Kind = iota
	KindMedium
	KindLarge
)

// AllKinds returns every kind, from the smallest shape to the largest.
func AllKinds() []Kind {
	return []Kind{KindSmall, KindMedium, KindLarge}
}

func (k Kind) String() string {
	switch k {
	case KindSmall:
		return "small"
	case KindMedium:
		return "medium"
	case KindLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Table is the table the records of this kind are stored in.
func (k Kind) Table() string {
	return k.String()
}

// Title is the capitalized name used in scenario names.
func (k Kind) Title() string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind accepts the table name of a kind, in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return KindSmall, nil
	case "medium":
		return KindMedium, nil
	case "large":
		return KindLarge, nil
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// ParseKinds parses a list of kinds, returning all kinds for an empty list.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return AllKinds(), nil
	}

	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
