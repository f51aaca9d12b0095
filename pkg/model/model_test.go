package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabels(t *testing.T) {
	a := Labels{Device: "pdu1", Category: CategoryCurrent, Target: "srv", Identifier: ".1.3.6.1.7"}
	b := Labels{Device: "pdu1", Category: CategoryCurrent, Target: "", Identifier: "srv.1.3.6.1.7"}

	assert.Equal(t, a.Key(), a.Key())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "7", a.Index())
	assert.Equal(t, "42", Labels{Identifier: "42"}.Index())
}

func TestCycleOutcome_Up(t *testing.T) {
	assert.True(t, CycleOutcome{}.Up())
	assert.True(t, CycleOutcome{Succeeded: 1, Failures: []FailureRecord{{}}}.Up())
	assert.False(t, CycleOutcome{Failures: []FailureRecord{{}}}.Up())
}
