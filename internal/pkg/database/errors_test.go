package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		serialization bool
		unique        bool
		foreignKey    bool
	}{
		{"serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, true, false, false},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), true, false, false},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "members_email_key"}, false, true, false},
		{"foreign key violation", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, false, false, true},
		{"plain error", errors.New("connection refused"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.serialization, IsSerializationFailure(tt.err))
			assert.Equal(t, tt.unique, IsUniqueViolation(tt.err))
			assert.Equal(t, tt.foreignKey, IsForeignKeyViolation(tt.err))
		})
	}

	assert.Equal(t, "members_email_key", ConstraintName(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "members_email_key"}))
}

func TestDatabaseURL(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "svc", Password: "p@ss", DBName: "booking", SSLMode: "disable"}
	assert.Equal(t, "postgres://svc:p%40ss@db:5432/booking?sslmode=disable", cfg.DatabaseURL())
}
