package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Trace flattens an error chain into log fields, including Postgres
// diagnostics from either the pgx or the lib/pq driver.
type Trace struct {
	Code  Code
	Chain []string
	PG    *PGDiagnostics
}

type PGDiagnostics struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

func TraceOf(err error) Trace {
	var t Trace
	if err == nil {
		return t
	}
	if typed := As(err); typed != nil {
		t.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		t.Chain = append(t.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	t.PG = pgDiagnostics(err)
	return t
}

func pgDiagnostics(err error) *PGDiagnostics {
	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		return &PGDiagnostics{pgErr.Code, pgErr.ConstraintName, pgErr.TableName, pgErr.ColumnName, pgErr.Detail, pgErr.Message}
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return &PGDiagnostics{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message}
	}
	return nil
}

// Fields renders the trace for the structured logger. Empty values are left out.
func (t Trace) Fields() map[string]any {
	fields := map[string]any{}
	if t.Code != "" {
		fields["error_code"] = string(t.Code)
	}
	if len(t.Chain) > 1 {
		fields["error_chain"] = t.Chain
	}
	if pg := t.PG; pg != nil {
		for k, v := range map[string]string{
			"pg_code":       pg.Code,
			"pg_constraint": pg.Constraint,
			"pg_table":      pg.Table,
			"pg_column":     pg.Column,
			"pg_detail":     pg.Detail,
			"pg_message":    pg.Message,
		} {
			if v != "" {
				fields[k] = v
			}
		}
	}
	return fields
}
