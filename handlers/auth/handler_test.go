package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"schoolportal/utils/auth"
)

func TestLogoutClearsSessionCookie(t *testing.T) {
	h := NewAuthHandler(nil, nil, nil, nil)

	app := fiber.New()
	app.Post("/api/auth/logout", h.Logout)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/auth/logout", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.TokenCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatalf("expected a %s cookie in the response", auth.TokenCookieName)
	}

	if sessionCookie.Value != "" {
		t.Errorf("expected cleared cookie value, got %q", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Errorf("expected HttpOnly cookie")
	}
	if sessionCookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", sessionCookie.SameSite)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	h := NewAuthHandler(nil, nil, nil, nil)

	app := fiber.New()
	app.Get("/api/auth/me", h.Me)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}
