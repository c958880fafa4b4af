package students

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
	txcontext "github.com/nirvagold/DapoMaster/pkg/platform/tx"
)

// PostgresStore reads and writes the upstream peserta_didik /
// registrasi_peserta_didik layout. This store is pure I/O; validity rules
// live in the validation engine.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Student, error) {
	query := `
		SELECT pd.peserta_didik_id, pd.nama,
		       pd.nik_ayah, pd.nik_wali,
		       pd.tahun_lahir_ayah, pd.tahun_lahir_wali,
		       rpd.id_hobby, rpd.id_cita,
		       pd.penerima_kps, pd.no_kps
		FROM peserta_didik pd
		JOIN registrasi_peserta_didik rpd ON pd.peserta_didik_id = rpd.peserta_didik_id
		WHERE pd.soft_delete = 0 AND rpd.jenis_keluar_id IS NULL
		ORDER BY pd.peserta_didik_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active students: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var (
			record      Student
			fatherYear  sql.NullInt64
			guardYear   sql.NullInt64
			hobbyID     sql.NullInt64
			aspirID     sql.NullInt64
			kpsReceiver int
		)
		err := rows.Scan(
			&record.ID, &record.Name,
			&record.FatherNIK, &record.GuardianNIK,
			&fatherYear, &guardYear,
			&hobbyID, &aspirID,
			&kpsReceiver, &record.KPSNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		record.FatherBirthYear = int64Field(fatherYear)
		record.GuardianBirthYear = int64Field(guardYear)
		record.HobbyID = int64Field(hobbyID)
		record.AspirationID = int64Field(aspirID)
		record.KPSReceiver = kpsReceiver == 1
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

// fieldColumns maps each logical field to its table, column, and storage type.
var fieldColumns = map[Field]struct {
	table   string
	column  string
	numeric bool
}{
	FieldFatherNIK:         {"peserta_didik", "nik_ayah", false},
	FieldGuardianNIK:       {"peserta_didik", "nik_wali", false},
	FieldFatherBirthYear:   {"peserta_didik", "tahun_lahir_ayah", true},
	FieldGuardianBirthYear: {"peserta_didik", "tahun_lahir_wali", true},
	FieldHobbyID:           {"registrasi_peserta_didik", "id_hobby", true},
	FieldAspirationID:      {"registrasi_peserta_didik", "id_cita", true},
}

func (s *PostgresStore) SetField(ctx context.Context, recordID uuid.UUID, field Field, value *string, actorID string) error {
	col, ok := fieldColumns[field]
	if !ok {
		return fmt.Errorf("field %q is not writable", field)
	}

	var arg any
	if value != nil {
		if col.numeric {
			n, err := strconv.ParseInt(*value, 10, 64)
			if err != nil {
				return fmt.Errorf("field %s expects a numeric value: %w", field, err)
			}
			arg = n
		} else {
			arg = *value
		}
	}

	query := fmt.Sprintf(
		`UPDATE %s SET %s = $1, last_update = NOW(), updater_id = $2 WHERE peserta_didik_id = $3`,
		col.table, col.column,
	)
	res, err := s.execer(ctx).ExecContext(ctx, query, arg, actorID, recordID)
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", field, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func int64Field(v sql.NullInt64) *string {
	if !v.Valid {
		return nil
	}
	s := strconv.FormatInt(v.Int64, 10)
	return &s
}
