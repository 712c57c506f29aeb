package selectql_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/selectql"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := selectql.Errorf(selectql.EINVALID, "query %q: from selector required", "rows")

	assert.Equal(t, selectql.EINVALID, selectql.ErrorCode(err))
	assert.Equal(t, "query \"rows\": from selector required", selectql.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, selectql.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, selectql.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("run: %w", selectql.Errorf(selectql.EUNAUTHORIZED, "bad token"))

	assert.Equal(t, selectql.EUNAUTHORIZED, selectql.ErrorCode(err))
	assert.Equal(t, "bad token", selectql.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, selectql.EINTERNAL, selectql.ErrorCode(err))
	assert.Equal(t, "Internal error.", selectql.ErrorMessage(err))
}
