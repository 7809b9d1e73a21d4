package record

import (
	"math/rand"

	"docbench/util"

	"github.com/pkg/errors"
)

// Fixed sequence lengths of the generated load.
const (
	NestedSmalls       = 5
	MediumArrayLen     = 30
	MediumOptVecLen    = 20
	NestedMediums      = 20
	NestedObjectVecLen = 10
	LargeStrings       = 20
)

// Text values are alphanumeric with a length in [minTextLen, maxTextLen).
const (
	minTextLen = 5
	maxTextLen = 20
)

// Generator produces random records. It is not safe for concurrent use; give
// each goroutine its own.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. A zero seed draws one from the clock.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: util.NewRand(seed)}
}

// Generate returns a fresh record of the given kind.
func (g *Generator) Generate(kind Kind) (Record, error) {
	switch kind {
	case KindSmall:
		return g.Small(), nil
	case KindMedium:
		return g.Medium(), nil
	case KindLarge:
		return g.Large(), nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%d", int(kind))
}

func (g *Generator) Small() *Small {
	return &Small{
		ID:     NewThing(KindSmall.Table(), g.rng).String(),
		Int:    g.rng.Uint32(),
		String: g.text(),
	}
}

func (g *Generator) Medium() *Medium {
	smalls := make([]Small, NestedSmalls)
	for i := range smalls {
		smalls[i] = *g.Small()
	}

	optString := g.text()
	optInt := g.rng.Uint32()

	return &Medium{
		ID:           NewThing(KindMedium.Table(), g.rng).String(),
		NestedSmalls: smalls,
		Array:        g.texts(MediumArrayLen),
		OptString:    &optString,
		OptInt:       &optInt,
		OptVec:       g.texts(MediumOptVecLen),
		LinkedThing:  NewThing(KindSmall.Table(), g.rng).String(),
	}
}

func (g *Generator) Large() *Large {
	l := &Large{ID: NewThing(KindLarge.Table(), g.rng).String()}

	l.NestedMediums = make([]Medium, NestedMediums)
	for i := range l.NestedMediums {
		l.NestedMediums[i] = *g.Medium()
	}

	// key collisions overwrite
	l.OptObject = map[string]string{}
	for i, n := 0, g.count(); i < n; i++ {
		l.OptObject[g.text()] = g.text()
	}

	l.NestedArrayInObject = map[string][]string{}
	for i, n := 0, g.count(); i < n; i++ {
		l.NestedArrayInObject[g.text()] = g.texts(NestedObjectVecLen)
	}

	l.Int1 = uint8(g.rng.Uint32())
	l.Int2 = uint16(g.rng.Uint32())
	l.Int3 = g.rng.Uint32()
	l.Int5 = int8(g.rng.Uint32())
	l.Int6 = int16(g.rng.Uint32())
	l.Int7 = int32(g.rng.Uint32())

	optInt := g.rng.Uint32()
	l.OptInt = &optInt

	for _, s := range []*string{
		&l.String1, &l.String2, &l.String3, &l.String4, &l.String5,
		&l.String6, &l.String7, &l.String8, &l.String9, &l.String10,
		&l.String11, &l.String12, &l.String13, &l.String14, &l.String15,
		&l.String16, &l.String17, &l.String18, &l.String19, &l.String20,
	} {
		*s = g.text()
	}

	optString := g.text()
	l.OptString = &optString

	return l
}

// count draws a map size over the whole range of a uint8.
func (g *Generator) count() int {
	return int(uint8(g.rng.Uint32()))
}

func (g *Generator) text() string {
	return util.RandomString(g.rng, minTextLen+g.rng.Intn(maxTextLen-minTextLen))
}

func (g *Generator) texts(n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = g.text()
	}
	return s
}
