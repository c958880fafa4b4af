package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
)

func TestCheckCounts(t *testing.T) {
	session := Session{
		TotalProcessed: 2,
		SuccessCount:   1,
		ErrorCount:     1,
		Outcomes:       []Outcome{{}, {}},
	}
	assert.NoError(t, session.CheckCounts())

	session.TotalProcessed = 3
	err := session.CheckCounts()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	session.TotalProcessed = 2
	session.SuccessCount = 2
	err = session.CheckCounts()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestTerminal(t *testing.T) {
	assert.False(t, (&Session{Status: SessionRunning}).Terminal())
	assert.True(t, (&Session{Status: SessionCompleted}).Terminal())
	assert.True(t, (&Session{Status: SessionFailed}).Terminal())
}

func TestStatsEqual(t *testing.T) {
	a := ValidationStats{
		TotalStudents: 10,
		Rules: []RuleStats{
			{RuleID: "nik_ayah_invalid", FieldName: "nik_ayah", Count: 3},
			{RuleID: "tanpa_hobby", FieldName: "id_hobby", Count: 2},
		},
	}
	b := a
	b.Rules = append([]RuleStats{}, a.Rules...)
	assert.True(t, a.Equal(b))

	b.Rules[1].Count = 99
	assert.False(t, a.Equal(b))

	c := a
	c.TotalStudents = 11
	assert.False(t, a.Equal(c))
}

func TestStatsAccessors(t *testing.T) {
	stats := ValidationStats{Rules: []RuleStats{
		{RuleID: "a", Count: 3},
		{RuleID: "b", Count: 2},
	}}
	assert.Equal(t, 3, stats.Count("a"))
	assert.Equal(t, 0, stats.Count("missing"))
	assert.Equal(t, 5, stats.TotalViolations())
}
