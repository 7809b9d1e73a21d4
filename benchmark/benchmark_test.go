package benchmark

import (
	"testing"

	"docbench/record"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	names := []string{}
	for _, s := range Matrix(record.AllKinds()) {
		names = append(names, s.Name())
	}

	assert.Equal(t, []string{
		"Small with No Define Statements",
		"Medium with No Define Statements",
		"Large with No Define Statements",
		"Small with Define Statements",
		"Medium with Define Statements",
		"Large with Define Statements",
	}, names)
}

func TestMatrixSubset(t *testing.T) {
	scenarios := Matrix([]record.Kind{record.KindLarge})
	assert.Equal(t, []Scenario{
		{Phase: Unconstrained, Kind: record.KindLarge},
		{Phase: Constrained, Kind: record.KindLarge},
	}, scenarios)

	assert.Empty(t, Matrix(nil))
}

func TestPhases(t *testing.T) {
	assert.Equal(t, []Phase{Unconstrained, Constrained}, Phases())
	assert.Equal(t, "unconstrained", Unconstrained.String())
	assert.Equal(t, "constrained", Constrained.String())
}
