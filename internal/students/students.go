package students

import (
	"github.com/google/uuid"
)

// Field names a logical student attribute the validation engine can read and
// write. Names follow the upstream Dapodik column names so operators can map
// findings back to the source system.
type Field string

const (
	FieldFatherNIK         Field = "nik_ayah"
	FieldGuardianNIK       Field = "nik_wali"
	FieldFatherBirthYear   Field = "tahun_lahir_ayah"
	FieldGuardianBirthYear Field = "tahun_lahir_wali"
	FieldHobbyID           Field = "id_hobby"
	FieldAspirationID      Field = "id_cita"
	FieldKPS               Field = "kps_pkh"
)

// Student is the engine's view of one active student record. Remediable
// values surface as *string regardless of their storage type; stores do the
// conversion so the engine stays database-agnostic.
type Student struct {
	ID   uuid.UUID
	Name string

	FatherNIK         *string
	GuardianNIK       *string
	FatherBirthYear   *string
	GuardianBirthYear *string
	HobbyID           *string
	AspirationID      *string

	// KPSReceiver and KPSNumber back the kps_pkh flag-only field: a student
	// marked as receiving social aid must carry a card number.
	KPSReceiver bool
	KPSNumber   *string
}

// FieldValue returns the current value of a logical field.
//
// For FieldKPS the value is the card number when the receiver flag is set and
// nil otherwise, so a non-nil empty value means "flagged as receiver without
// a number", the invalid state the kps_pkh rule detects.
func (s *Student) FieldValue(field Field) *string {
	switch field {
	case FieldFatherNIK:
		return s.FatherNIK
	case FieldGuardianNIK:
		return s.GuardianNIK
	case FieldFatherBirthYear:
		return s.FatherBirthYear
	case FieldGuardianBirthYear:
		return s.GuardianBirthYear
	case FieldHobbyID:
		return s.HobbyID
	case FieldAspirationID:
		return s.AspirationID
	case FieldKPS:
		if !s.KPSReceiver {
			return nil
		}
		if s.KPSNumber == nil {
			empty := ""
			return &empty
		}
		return s.KPSNumber
	}
	return nil
}

// SetFieldValue updates a logical field in place. FieldKPS is read-only at
// this seam; its rule never mutates.
func (s *Student) SetFieldValue(field Field, value *string) {
	switch field {
	case FieldFatherNIK:
		s.FatherNIK = value
	case FieldGuardianNIK:
		s.GuardianNIK = value
	case FieldFatherBirthYear:
		s.FatherBirthYear = value
	case FieldGuardianBirthYear:
		s.GuardianBirthYear = value
	case FieldHobbyID:
		s.HobbyID = value
	case FieldAspirationID:
		s.AspirationID = value
	}
}
