// Package rules holds the fixed catalog of validation rules. The catalog is
// versioned as a whole and evolves append-only: a rule's ID and semantics
// never change once a historical session references it; behavior changes get
// new rule IDs.
package rules

import (
	"strconv"
	"strings"

	"github.com/nirvagold/DapoMaster/internal/reference"
	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
)

// Rule binds a field, a validity predicate, and a remediation strategy.
type Rule struct {
	ID          string
	Field       students.Field
	DisplayName string
	Strategy    models.Strategy
	// ReferenceID names the reference catalog for StrategyRandomAssign rules.
	ReferenceID string
	// Invalid reports whether the current value violates the rule.
	Invalid func(value *string) bool
}

// Mutates reports whether this rule's strategy writes to records.
func (r Rule) Mutates() bool {
	return r.Strategy != models.StrategyFlagOnly
}

// Catalog returns the rule catalog in application order. Order is part of the
// contract: remediation applies rules exactly in this sequence.
func Catalog() []Rule {
	return []Rule{
		{
			ID:          "nik_ayah_invalid",
			Field:       students.FieldFatherNIK,
			DisplayName: "NIK Ayah",
			Strategy:    models.StrategyNullify,
			Invalid:     invalidNIK,
		},
		{
			ID:          "tanpa_hobby",
			Field:       students.FieldHobbyID,
			DisplayName: "Hobby",
			Strategy:    models.StrategyRandomAssign,
			ReferenceID: reference.CatalogHobby,
			Invalid:     missingReferenceID,
		},
		{
			ID:          "tanpa_cita_cita",
			Field:       students.FieldAspirationID,
			DisplayName: "Cita-cita",
			Strategy:    models.StrategyRandomAssign,
			ReferenceID: reference.CatalogAspiration,
			Invalid:     missingReferenceID,
		},
		{
			ID:          "tahun_lahir_ayah_invalid",
			Field:       students.FieldFatherBirthYear,
			DisplayName: "Tahun Lahir Ayah",
			Strategy:    models.StrategyNullify,
			Invalid:     invalidBirthYear,
		},
		{
			ID:          "nik_wali_invalid",
			Field:       students.FieldGuardianNIK,
			DisplayName: "NIK Wali",
			Strategy:    models.StrategyNullify,
			Invalid:     invalidNIK,
		},
		{
			ID:          "tahun_lahir_wali_invalid",
			Field:       students.FieldGuardianBirthYear,
			DisplayName: "Tahun Lahir Wali",
			Strategy:    models.StrategyNullify,
			Invalid:     invalidBirthYear,
		},
		{
			// Detected but intentionally left for manual review: there is no
			// safe automatic fix for an aid receiver without a card number.
			ID:          "kps_pkh_invalid",
			Field:       students.FieldKPS,
			DisplayName: "KPS/PKH",
			Strategy:    models.StrategyFlagOnly,
			Invalid:     missingKPSNumber,
		},
	}
}

// MutationScope returns the fields covered by mutating rules; this is the
// union scope snapshots capture before any write.
func MutationScope() []students.Field {
	var scope []students.Field
	seen := make(map[students.Field]bool)
	for _, rule := range Catalog() {
		if rule.Mutates() && !seen[rule.Field] {
			seen[rule.Field] = true
			scope = append(scope, rule.Field)
		}
	}
	return scope
}

// invalidNIK: a present NIK must be exactly 16 digits. Null is valid (the
// field is optional); malformed values get nullified.
func invalidNIK(value *string) bool {
	if value == nil {
		return false
	}
	if len(*value) != 16 {
		return true
	}
	for _, c := range *value {
		if c < '0' || c > '9' {
			return true
		}
	}
	return false
}

// invalidBirthYear: a present year must fall in 1900..2024.
func invalidBirthYear(value *string) bool {
	if value == nil {
		return false
	}
	year, err := strconv.Atoi(strings.TrimSpace(*value))
	if err != nil {
		return true
	}
	return year < 1900 || year > 2024
}

// missingReferenceID: null or the -1 placeholder means not filled in.
func missingReferenceID(value *string) bool {
	return value == nil || *value == "-1"
}

// missingKPSNumber: the seam surfaces a non-nil value only for flagged
// receivers; empty means the card number is missing.
func missingKPSNumber(value *string) bool {
	return value != nil && strings.TrimSpace(*value) == ""
}
