package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFoundf("missing")))
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindForbidden, KindOf(Forbiddenf("not yours")))
	assert.Equal(t, KindConflict, KindOf(Conflictf("stale")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))

	// Wrapping elsewhere in the chain still classifies.
	wrapped := fmt.Errorf("outer: %w", NotFoundf("inner"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("driver exploded")
	err := Wrap(KindInternal, "query failed", cause)
	assert.Equal(t, "query failed: driver exploded", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransitionf("submit", "APPROVED", "DRAFT")
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Equal(t, "submit requires status DRAFT, order is APPROVED", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validationf("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbiddenf("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(InvalidTransitionf("x", "A", "B")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflictf("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
