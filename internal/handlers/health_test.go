package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("no route to host") }

	rec := httptest.NewRecorder()
	Health(map[string]Check{"mongo": up, "redis": up})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"mongo":"up","redis":"up"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Health(map[string]Check{"mongo": up, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"mongo":"up","redis":"down"}}`, rec.Body.String())
}
