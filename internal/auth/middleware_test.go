package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func newPrivateApp() *fiber.App {
	app := fiber.New()
	app.Get("/private", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func requestWithToken(t *testing.T, app *fiber.App, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestJWTMiddleware(t *testing.T) {
	app := newPrivateApp()

	if resp := requestWithToken(t, app, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized without token")
	}
	if resp := requestWithToken(t, app, "Basic abc"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for basic auth")
	}
	if resp := requestWithToken(t, app, "Bearer not-a-jwt"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for garbage token")
	}

	token, err := SignToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if resp := requestWithToken(t, app, "Bearer "+token); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsWrongSecretAndExpiry(t *testing.T) {
	app := newPrivateApp()

	wrong, _ := SignToken("other", "user-1", time.Minute)
	if resp := requestWithToken(t, app, "Bearer "+wrong); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for wrong secret")
	}

	expired, _ := SignToken("secret", "user-1", -time.Minute)
	if resp := requestWithToken(t, app, "Bearer "+expired); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for expired token")
	}
}

func TestJWTMiddlewareRejectsOtherAlgorithms(t *testing.T) {
	app := newPrivateApp()

	claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if resp := requestWithToken(t, app, "Bearer "+token); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for HS512")
	}
}

func TestSignTokenRequiresUser(t *testing.T) {
	if _, err := SignToken("secret", "", time.Minute); err == nil {
		t.Fatalf("expected error")
	}
}

func TestJWTMiddlewareAcceptsQueryToken(t *testing.T) {
	app := newPrivateApp()
	token, err := SignToken("secret", "viewer", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private?access_token="+token, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok for query token, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/private?access_token=nope", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for bad query token, got %d", resp.StatusCode)
	}
}
