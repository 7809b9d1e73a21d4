package record

import (
	"math/rand"
	"strings"

	"docbench/util"

	"github.com/pkg/errors"
)

var ErrInvalidThing = errors.New("invalid record identifier")

// keyLength matches the length of the random ids the store itself generates.
const keyLength = 20

// Thing addresses a single row: <table>:<key>.
type Thing struct {
	Table string
	Key   string
}

// NewThing returns a thing on table with a fresh random key.
func NewThing(table string, rng *rand.Rand) Thing {
	return Thing{Table: table, Key: util.RandomString(rng, keyLength)}
}

func (t Thing) String() string {
	return t.Table + ":" + t.Key
}

// ParseThing splits an identifier on its first ':'. Both halves must be non-empty.
func ParseThing(id string) (Thing, error) {
	tb, key, ok := strings.Cut(id, ":")
	if !ok || tb == "" || key == "" {
		return Thing{}, errors.Wrapf(ErrInvalidThing, "%q", id)
	}
	return Thing{Table: tb, Key: key}, nil
}
