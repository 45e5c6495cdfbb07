package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation error",
			err:  &pgconn.PgError{Code: uniqueViolationErrCode},
			want: true,
		},
		{
			name: "wrapped unique violation error",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolationErrCode}),
			want: true,
		},
		{
			name: "not unique violation error",
			err:  &pgconn.PgError{Code: "unknown error code"},
			want: false,
		},
		{
			name: "not driver error",
			err:  errors.New("unknown error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolationError(tt.err))
		})
	}
}
