package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleCtx(role any) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	return c, rec
}

func TestRequireRole(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := RequireRole("admin")

	t.Run("allowed role passes", func(t *testing.T) {
		c, rec := roleCtx("admin")
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		c, rec := roleCtx("client")
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		c, rec := roleCtx(nil)
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("non-string role is forbidden", func(t *testing.T) {
		c, rec := roleCtx(13)
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
