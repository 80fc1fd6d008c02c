package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovix/booking-api/internal/utils"
)

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	mw := JWTAuth(secret)

	capture := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	}

	request := func(authHeader string) (*httptest.ResponseRecorder, error) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		return rec, mw(capture)(e.NewContext(req, rec))
	}

	t.Run("valid token reaches handler with claims", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 7, "client", 5)
		require.NoError(t, err)

		rec, err := request("Bearer " + at.Token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"client"`)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, err := request("")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", 7, "client", 5)
		require.NoError(t, err)

		rec, err := request("Bearer " + at.Token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, err := request("Bearer not.a.jwt")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
