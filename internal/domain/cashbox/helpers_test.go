package cashbox

import (
	"errors"
	"testing"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %T", err)
	require.Equal(t, code, de.Code)
}

func newTestCashbox(t *testing.T) *Cashbox {
	t.Helper()
	cb, err := NewCashbox(uuid.New(), uuid.New(), "CB-MAIN", "Main drawer")
	require.NoError(t, err)
	return cb
}

func newOpenSession(t *testing.T, opening string) *Session {
	t.Helper()
	s, err := OpenSession(newTestCashbox(t), uuid.New(), d(opening), "")
	require.NoError(t, err)
	return s
}
