package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnosis is the log-only view of a failure. None of it reaches clients.
type Diagnosis struct {
	Message string
	Code    Code
	// Layers holds each distinct message on the way down to the root cause.
	Layers []string

	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
}

// Diagnose collects what the request log needs from err, including the
// postgres driver fields when either pgx or lib/pq produced the root cause.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	d := Diagnosis{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}

	last := ""
	for e := err; e != nil; e = errors.Unwrap(e) {
		if msg := e.Error(); msg != last {
			d.Layers = append(d.Layers, msg)
			last = msg
		}
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
	}
	return d
}

// Fields flattens d for structured logging and drops empty driver fields.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{"error": d.Message}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if len(d.Layers) > 1 {
		fields["error_layers"] = d.Layers
	}
	for key, value := range map[string]string{
		"sql_state":      d.SQLState,
		"sql_constraint": d.Constraint,
		"sql_table":      d.Table,
		"sql_column":     d.Column,
		"sql_detail":     d.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
