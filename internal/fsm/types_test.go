package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *Definition {
	return &Definition{
		States: []string{"Draft", "Approved", "Archived"},
		Transitions: []Transition{
			{From: "Draft", To: "Approved", Action: "approve"},
			{From: "Draft", To: "Archived", Action: "discard"},
			{From: "Approved", To: "Archived", Action: "close"},
		},
		Defaults: &Defaults{InitialState: "Draft"},
	}
}

func TestIsDeclared(t *testing.T) {
	def := sampleDefinition()

	assert.True(t, def.IsDeclared("Draft"))
	assert.True(t, def.IsDeclared("Archived"))
	assert.False(t, def.IsDeclared("Review"))
	assert.False(t, def.IsDeclared(""))
}

func TestTransitionsFrom(t *testing.T) {
	def := sampleDefinition()

	from := def.TransitionsFrom("Draft")
	require.Len(t, from, 2)
	assert.Equal(t, "approve", from[0].Action)
	assert.Equal(t, "discard", from[1].Action)

	assert.Len(t, def.TransitionsFrom("Approved"), 1)
	assert.Empty(t, def.TransitionsFrom("Archived"))
	assert.Empty(t, def.TransitionsFrom("Unknown"))
}

func TestTransitionsFromReturnsCopy(t *testing.T) {
	def := sampleDefinition()

	from := def.TransitionsFrom("Draft")
	from[0].Action = "mutated"

	assert.Equal(t, "approve", def.Transitions[0].Action)
}

func TestInitialState(t *testing.T) {
	def := sampleDefinition()
	assert.Equal(t, "Draft", def.InitialState())

	def.Defaults = nil
	assert.Equal(t, "", def.InitialState())

	def.Defaults = &Defaults{}
	assert.Equal(t, "", def.InitialState())
}
