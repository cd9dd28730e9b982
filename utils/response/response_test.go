package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"schoolportal/utils/validation"
)

func doRequest(t *testing.T, handler fiber.Handler) (int, Response) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("unmarshal %q: %v", body, err)
	}

	return resp.StatusCode, parsed
}

func TestSuccessEnvelope(t *testing.T) {
	status, parsed := doRequest(t, func(c *fiber.Ctx) error {
		return Success(c, fiber.Map{"value": 42})
	})

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !parsed.Success {
		t.Fatalf("expected success=true")
	}
	if parsed.Error != nil {
		t.Fatalf("unexpected error detail: %+v", parsed.Error)
	}
}

func TestErrorEnvelopeCarriesCode(t *testing.T) {
	status, parsed := doRequest(t, func(c *fiber.Ctx) error {
		return Forbidden(c, "")
	})

	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	if parsed.Success {
		t.Fatalf("expected success=false")
	}
	if parsed.Error == nil || parsed.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN code, got %+v", parsed.Error)
	}
	if parsed.Error.Message != "Insufficient permissions" {
		t.Fatalf("expected default forbidden message, got %q", parsed.Error.Message)
	}
}

func TestValidationErrorFormatsFieldMessages(t *testing.T) {
	type loginForm struct {
		Username string `validate:"required"`
		Password string `validate:"required,min=6"`
	}

	err := validation.NewValidator().ValidateStruct(&loginForm{Password: "abc"})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	status, parsed := doRequest(t, func(c *fiber.Ctx) error {
		return ValidationError(c, err)
	})

	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if parsed.Error == nil || parsed.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR code, got %+v", parsed.Error)
	}
	if !strings.Contains(parsed.Error.Details, "Username is required") {
		t.Errorf("expected required-field message, got %q", parsed.Error.Details)
	}
	if !strings.Contains(parsed.Error.Details, "Password must be at least 6 characters") {
		t.Errorf("expected min-length message, got %q", parsed.Error.Details)
	}
}

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(2, 10, 25)
	if meta.CurrentPage != 2 || meta.PerPage != 10 || meta.Total != 25 || meta.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", meta)
	}

	meta = CalculatePagination(0, 0, 0)
	if meta.CurrentPage != 1 || meta.PerPage != 10 || meta.TotalPages != 0 {
		t.Fatalf("unexpected defaults: %+v", meta)
	}
}
