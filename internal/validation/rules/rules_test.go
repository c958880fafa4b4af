package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
)

func str(v string) *string { return &v }

func TestCatalogOrder(t *testing.T) {
	ids := []string{}
	for _, rule := range Catalog() {
		ids = append(ids, rule.ID)
	}
	// Application order is part of the contract.
	assert.Equal(t, []string{
		"nik_ayah_invalid",
		"tanpa_hobby",
		"tanpa_cita_cita",
		"tahun_lahir_ayah_invalid",
		"nik_wali_invalid",
		"tahun_lahir_wali_invalid",
		"kps_pkh_invalid",
	}, ids)
}

func TestCatalogShape(t *testing.T) {
	for _, rule := range Catalog() {
		require.NotNil(t, rule.Invalid, "rule %s must have a predicate", rule.ID)
		if rule.Strategy == models.StrategyRandomAssign {
			assert.NotEmpty(t, rule.ReferenceID, "rule %s needs a reference catalog", rule.ID)
		} else {
			assert.Empty(t, rule.ReferenceID, "rule %s must not name a catalog", rule.ID)
		}
	}
}

func TestMutationScope(t *testing.T) {
	scope := MutationScope()
	assert.ElementsMatch(t, []students.Field{
		students.FieldFatherNIK,
		students.FieldHobbyID,
		students.FieldAspirationID,
		students.FieldFatherBirthYear,
		students.FieldGuardianNIK,
		students.FieldGuardianBirthYear,
	}, scope)
	assert.NotContains(t, scope, students.FieldKPS, "flag-only fields are never snapshotted")
}

func TestInvalidNIK(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  bool
	}{
		{"nil is valid", nil, false},
		{"sixteen digits is valid", str("1234567890123456"), false},
		{"too short", str("123"), true},
		{"too long", str("12345678901234567"), true},
		{"letters", str("12345678901234ab"), true},
		{"empty", str(""), true},
		{"digits with space", str("123456789012345 "), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invalidNIK(tt.value))
		})
	}
}

func TestInvalidBirthYear(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  bool
	}{
		{"nil is valid", nil, false},
		{"lower bound", str("1900"), false},
		{"upper bound", str("2024"), false},
		{"too early", str("1899"), true},
		{"too late", str("2025"), true},
		{"not a number", str("19xx"), true},
		{"padded number", str(" 1980 "), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invalidBirthYear(tt.value))
		})
	}
}

func TestMissingReferenceID(t *testing.T) {
	assert.True(t, missingReferenceID(nil))
	assert.True(t, missingReferenceID(str("-1")))
	assert.False(t, missingReferenceID(str("1")))
}

func TestMissingKPSNumber(t *testing.T) {
	assert.False(t, missingKPSNumber(nil), "non-receivers are out of scope")
	assert.True(t, missingKPSNumber(str("")))
	assert.True(t, missingKPSNumber(str("   ")))
	assert.False(t, missingKPSNumber(str("KPS-123")))
}
