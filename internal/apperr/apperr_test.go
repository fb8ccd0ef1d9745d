package apperr

import (
    "errors"
    "fmt"
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestFromPassesThrough(t *testing.T) {
    orig := NotFound("event not found")
    assert.Same(t, orig, From(orig))
    assert.Equal(t, http.StatusNotFound, StatusOf(orig))
}

func TestFromUnwrapsChains(t *testing.T) {
    wrapped := fmt.Errorf("cancel payment: %w", BadRequest("already cancelled"))
    got := From(wrapped)
    assert.Equal(t, http.StatusBadRequest, got.Status)
    assert.Equal(t, "already cancelled", got.Message)
}

func TestFromDemotesUnknownErrors(t *testing.T) {
    got := From(errors.New("driver: bad connection"))
    assert.Equal(t, http.StatusInternalServerError, got.Status)
    assert.Equal(t, "unexpected error", got.Message, "internal details must not leak")
}

func TestErrorMessage(t *testing.T) {
    err := New(http.StatusBadGateway, "payment cancellation failed")
    assert.EqualError(t, err, "payment cancellation failed")
}
