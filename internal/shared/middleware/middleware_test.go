package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"concertticket/internal/shared/config"
)

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: "test-secret", JWTExpiresIn: time.Minute}}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func protectedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/op", JWTAuth(cfg), RequireOperator(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeySubject))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	cfg := testConfig()
	r := protectedRouter(cfg)
	exp := time.Now().Add(time.Minute).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "op", "role": RoleOperator, "type": "access", "exp": exp}), http.StatusUnauthorized},
		{"refresh token", "Bearer " + signToken(t, cfg.JWT.Secret, jwt.MapClaims{"sub": "op", "role": RoleOperator, "type": "refresh", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, cfg.JWT.Secret, jwt.MapClaims{"sub": "op", "role": RoleOperator, "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, cfg.JWT.Secret, jwt.MapClaims{"sub": "op", "role": "BUYER", "type": "access", "exp": exp}), http.StatusForbidden},
		{"operator", "Bearer " + signToken(t, cfg.JWT.Secret, jwt.MapClaims{"sub": "op", "role": RoleOperator, "type": "access", "exp": exp}), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/op", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextKeyRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated request id %q is not a uuid", id)
	}
	if w.Body.String() != id {
		t.Errorf("context id %q != header id %q", w.Body.String(), id)
	}

	given := uuid.NewString()
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, given)
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != given {
		t.Errorf("request id = %q, want propagated %q", got, given)
	}
}
