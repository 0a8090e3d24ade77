package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"concertticket/internal/shared/clock"
	"concertticket/internal/shared/config"
)

func testConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		Enabled:             true,
		WindowDuration:      time.Minute,
		DefaultRequests:     5,
		PublicRequests:      3,
		TransactionRequests: 2,
		OperatorRequests:    1,
		HealthRequests:      10,
	}
}

func newLimiter(t *testing.T, cfg *config.RateLimitConfig) (*RateLimiter, *clock.Manual) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewRateLimiter(client, cfg, clk), clk
}

func TestIsAllowedEnforcesLimitWithinWindow(t *testing.T) {
	rl, clk := newLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeTransaction)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rejected", i)
		}
		if res.Remaining != 1-i {
			t.Errorf("request %d remaining = %d, want %d", i, res.Remaining, 1-i)
		}
	}

	res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeTransaction)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Remaining != 0 {
		t.Errorf("third request = %+v, want rejected", res)
	}

	// Other clients and other groups have their own windows.
	if res, _ := rl.IsAllowed(ctx, "10.0.0.2", RateLimitTypeTransaction); !res.Allowed {
		t.Error("second client rejected")
	}
	if res, _ := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypePublic); !res.Allowed {
		t.Error("public group rejected")
	}

	clk.Advance(61 * time.Second)
	if res, _ := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeTransaction); !res.Allowed {
		t.Error("request after window rejected")
	}
}

func TestIsAllowedBypass(t *testing.T) {
	cfg := testConfig()
	cfg.WhitelistedIPs = []string{"127.0.0.1"}
	rl, _ := newLimiter(t, cfg)

	for i := 0; i < 5; i++ {
		res, err := rl.IsAllowed(context.Background(), "127.0.0.1", RateLimitTypeOperator)
		if err != nil || !res.Allowed {
			t.Fatalf("whitelisted request %d = %+v, %v", i, res, err)
		}
	}

	disabled := NewRateLimiter(nil, testConfig(), nil)
	for i := 0; i < 5; i++ {
		res, err := disabled.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeOperator)
		if err != nil || !res.Allowed {
			t.Fatalf("limiter without redis rejected request %d", i)
		}
	}
}

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		method, path string
		want         RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/operator/faucet", RateLimitTypeOperator},
		{http.MethodPost, "/api/v1/transactions", RateLimitTypeTransaction},
		{http.MethodGet, "/api/v1/transactions/:signature", RateLimitTypePublic},
		{http.MethodGet, "/api/v1/venues/:address", RateLimitTypePublic},
		{http.MethodGet, "/unknown", RateLimitTypeDefault},
	}
	for _, tt := range tests {
		if got := getRateLimitType(tt.method, tt.path); got != tt.want {
			t.Errorf("getRateLimitType(%s %s) = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func newLimitedEngine(t *testing.T, trustedProxies []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.OperatorRequests = 1
	rl, _ := newLimiter(t, cfg)

	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		t.Fatal(err)
	}
	r.Use(Middleware(rl))
	r.POST("/api/v1/operator/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func login(r *gin.Engine, forwardedFor string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	// httptest requests come from 192.0.2.1
	req := httptest.NewRequest(http.MethodPost, "/api/v1/operator/login", nil)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	r := newLimitedEngine(t, nil)

	if w := login(r, "198.51.100.7"); w.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", w.Code)
	} else if w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q", w.Header().Get("X-RateLimit-Limit"))
	}
	// A rotated X-Forwarded-For from an untrusted peer is still the same client.
	if w := login(r, "198.51.100.8"); w.Code != http.StatusTooManyRequests {
		t.Errorf("spoofed forwarded-for status = %d, want 429", w.Code)
	}
}

func TestMiddlewareTrustedProxy(t *testing.T) {
	r := newLimitedEngine(t, []string{"192.0.2.1"})

	if w := login(r, "198.51.100.7"); w.Code != http.StatusNoContent {
		t.Fatalf("first client status = %d", w.Code)
	}
	if w := login(r, "198.51.100.8"); w.Code != http.StatusNoContent {
		t.Errorf("second client status = %d, want 204", w.Code)
	}
	if w := login(r, "198.51.100.7"); w.Code != http.StatusTooManyRequests {
		t.Errorf("repeat client status = %d, want 429", w.Code)
	}
}
