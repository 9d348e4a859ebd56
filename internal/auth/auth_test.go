package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("eduscan", "secret", time.Hour)
	tok, err := iss.Issue("gate-1", "Puerta principal")
	require.NoError(t, err)
	assert.Equal(t, "gate-1", tok.DeviceID)

	claims, err := iss.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "gate-1", claims.Device)
	assert.Equal(t, RoleKiosk, claims.Role)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("eduscan", "secret", time.Hour)
	tok, err := iss.Issue("gate-1", "")
	require.NoError(t, err)

	other := NewIssuer("eduscan", "different", time.Hour)
	_, err = other.Parse(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewIssuer("someone-else", "secret", time.Hour)
	_, err = wrongIssuer.Parse(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewIssuer("eduscan", "secret", time.Hour)
	later.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Issue("", "")
	assert.Error(t, err)
}

func TestDeviceAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := NewIssuer("eduscan", "secret", time.Hour)
	r := gin.New()
	r.GET("/who", DeviceAuth(iss), func(c *gin.Context) {
		c.String(http.StatusOK, DeviceID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := iss.Issue("gate-2", "")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gate-2", w.Body.String())
}
