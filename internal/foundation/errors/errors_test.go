package errors

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "main.yaml").
			Build()

		require.Equal(t, CategoryConfig, err.Category())
		require.Equal(t, SeverityFatal, err.Severity())
		require.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		require.Equal(t, "main.yaml", file)
	})

	t.Run("Wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("boom")
		err := WrapError(cause, CategoryCompile, "compile manager").Build()
		wrapped := fmt.Errorf("stage: %w", err)

		require.ErrorIs(t, wrapped, cause)
		require.True(t, HasCategory(wrapped, CategoryCompile))
		require.Equal(t, CategoryCompile, GetCategory(wrapped))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		_, ok := AsClassified(err)
		require.False(t, ok)
		require.False(t, HasCategory(err, CategoryInternal))
		require.Equal(t, CategoryInternal, GetCategory(err))
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := NewError(CategoryPreset, "missing").Build()
		derived := base.WithContext("preset", "react")

		_, ok := base.Context().Get("preset")
		require.False(t, ok)
		v, ok := derived.Context().GetString("preset")
		require.True(t, ok)
		require.Equal(t, "react", v)
	})
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	require.Equal(t, ExitSuccess, a.ExitCodeFor(nil))
	require.Equal(t, ExitFailure, a.ExitCodeFor(errors.New("plain")))
	require.Equal(t, ExitFailure, a.ExitCodeFor(NewError(CategoryPreset, "not found").Build()))
	require.Equal(t, ExitFailure, a.ExitCodeFor(NewError(CategoryCompile, "preview").Build()))
	require.Equal(t, ExitStaticCopy, a.ExitCodeFor(NewError(CategoryStaticCopy, "copy ./public").Build()))
}

func TestCLIErrorAdapterHandleError(t *testing.T) {
	var stderr bytes.Buffer
	code := 0
	a := NewCLIErrorAdapter(false, nil)
	a.stderr = &stderr
	a.exit = func(c int) { code = c }

	a.HandleError(WrapError(errors.New("permission denied"), CategoryStaticCopy, "copy static dir").Build())

	require.Equal(t, ExitStaticCopy, code)
	require.Contains(t, stderr.String(), "copy static dir")
	require.Contains(t, stderr.String(), "permission denied")
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)

	require.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
	require.Equal(t, http.StatusUnprocessableEntity, a.StatusCodeFor(NewError(CategoryCompile, "preview").Build()))
	require.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(errors.New("x")))
	require.Equal(t, http.StatusNotFound, a.StatusCodeFor(fmt.Errorf("serve: %w", NewError(CategoryNotFound, "missing").Build())))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	a.WriteErrorResponse(rec, req, NewError(CategoryCompile, "preview failed").WithContext("errors", 2).Build())

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"code":"compile"`)
	require.Contains(t, rec.Body.String(), `"preview failed"`)
}
