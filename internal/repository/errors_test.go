package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPostgresErrors(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
		want error
	}{
		{name: "unique violation", code: "23505", want: ErrDuplicate},
		{name: "serialization failure", code: "40001", want: ErrConflict},
		{name: "deadlock detected", code: "40P01", want: ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := &pq.Error{Code: tt.code, Message: tt.name}
			err := classify(fmt.Errorf("commit: %w", cause), "failed to commit")

			assert.ErrorIs(t, err, tt.want)
			var pqErr *pq.Error
			assert.True(t, errors.As(err, &pqErr), "driver error must stay reachable")
			assert.Contains(t, err.Error(), "failed to commit")
		})
	}
}

func TestClassifyOtherErrors(t *testing.T) {
	assert.NoError(t, classify(nil, "noop"))

	err := classify(&pq.Error{Code: "23503"}, "failed to insert record")
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.False(t, errors.Is(err, ErrConflict))

	plain := errors.New("connection reset")
	err = classify(plain, "failed to lock user")
	assert.ErrorIs(t, err, plain)
	assert.False(t, errors.Is(err, ErrConflict))
}
