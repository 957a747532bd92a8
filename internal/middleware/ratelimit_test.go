package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/config"
	"github.com/iliyamo/giveaway-market/internal/utils"
)

func newLimiterCtx(authorization string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

// The limiter is registered globally and runs before JWTAuth, so the
// user id has to come off the bearer token itself for authenticated
// callers to get per-user buckets.
func TestCurrentUserID(t *testing.T) {
	const sub = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

	t.Run("no token", func(t *testing.T) {
		if got := currentUserID(newLimiterCtx("")); got != "anon" {
			t.Fatalf("currentUserID = %q, want anon", got)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if got := currentUserID(newLimiterCtx("Bearer not.a.jwt")); got != "anon" {
			t.Fatalf("currentUserID = %q, want anon", got)
		}
	})

	t.Run("bearer token before auth ran", func(t *testing.T) {
		tok, err := utils.NewAccessToken("any-secret", sub, 5)
		if err != nil {
			t.Fatal(err)
		}
		if got := currentUserID(newLimiterCtx("Bearer " + tok.Token)); got != sub {
			t.Fatalf("currentUserID = %q, want %q", got, sub)
		}
	})

	t.Run("context id wins over header", func(t *testing.T) {
		tok, err := utils.NewAccessToken("any-secret", sub, 5)
		if err != nil {
			t.Fatal(err)
		}
		c := newLimiterCtx("Bearer " + tok.Token)
		c.Set("user_id", "from-context")
		if got := currentUserID(c); got != "from-context" {
			t.Fatalf("currentUserID = %q, want from-context", got)
		}
	})
}

func TestBuildRateKeyShardsByUser(t *testing.T) {
	const sub = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	tok, err := utils.NewAccessToken("any-secret", sub, 5)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}

	authed := buildRateKey(cfg, newLimiterCtx("Bearer "+tok.Token))
	if !strings.Contains(authed, sub) {
		t.Fatalf("key %q does not shard on the caller's id", authed)
	}
	anon := buildRateKey(cfg, newLimiterCtx(""))
	if !strings.Contains(anon, "anon") {
		t.Fatalf("key %q should fall back to anon", anon)
	}
	if authed == anon {
		t.Fatalf("authenticated and anonymous callers share bucket %q", authed)
	}
}
