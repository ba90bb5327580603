package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

type fakeProvisioner struct {
	calls     int
	byEmail   map[string]uuid.UUID
	lastClaim Claim
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{byEmail: make(map[string]uuid.UUID)}
}

func (f *fakeProvisioner) Provision(_ context.Context, claim Claim) (Identity, error) {
	f.calls++
	f.lastClaim = claim
	if id, ok := f.byEmail[claim.Email]; ok {
		return Identity{UserID: id, Email: claim.Email, Name: claim.Name}, nil
	}
	id := uuid.New()
	f.byEmail[claim.Email] = id
	return Identity{UserID: id, Email: claim.Email, Name: claim.Name, Provisioned: true}, nil
}

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func callGate(t *testing.T, users Provisioner, authorization string) (*httptest.ResponseRecorder, Identity) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/organizations", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured Identity
	handler := Gate(Config{DevSigningKey: testKey}, users)(func(c echo.Context) error {
		ident, ok := IdentityFromContext(c.Request().Context())
		if !ok {
			t.Fatal("identity missing from context after gate")
		}
		captured = ident
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, captured
}

func TestGate_MissingHeader(t *testing.T) {
	users := newFakeProvisioner()
	rec, _ := callGate(t, users, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if users.calls != 0 {
		t.Errorf("provisioner must not run without a token, got %d calls", users.calls)
	}
}

func TestGate_MalformedHeader(t *testing.T) {
	users := newFakeProvisioner()
	rec, _ := callGate(t, users, "Token abc")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGate_InvalidSignature(t *testing.T) {
	users := newFakeProvisioner()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "a@clinic.test",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("wrong-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, _ := callGate(t, users, "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if users.calls != 0 {
		t.Errorf("provisioner must not run for an invalid token, got %d calls", users.calls)
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	users := newFakeProvisioner()
	signed := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Email: "a@clinic.test",
	})

	rec, _ := callGate(t, users, "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGate_MissingSubjectOrEmail(t *testing.T) {
	users := newFakeProvisioner()

	cases := []struct {
		name   string
		claims Claims
	}{
		{"no subject", Claims{Email: "a@clinic.test"}},
		{"no email", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|abc"}}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := callGate(t, users, "Bearer "+signToken(t, tt.claims))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
	if users.calls != 0 {
		t.Errorf("provisioner must not run for incomplete claims, got %d calls", users.calls)
	}
}

func TestGate_ProvisionsOnFirstContact(t *testing.T) {
	users := newFakeProvisioner()
	signed := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|abc"},
		Email:            "dr.silva@clinic.test",
		Name:             "Dr. Silva",
		Picture:          "https://cdn.example.com/avatar.png",
	})

	rec, ident := callGate(t, users, "Bearer "+signed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !ident.Provisioned {
		t.Error("expected Provisioned=true on first contact")
	}
	if users.lastClaim.Avatar != "https://cdn.example.com/avatar.png" {
		t.Errorf("expected picture claim passed through, got %q", users.lastClaim.Avatar)
	}

	// Second call resolves the same user without creating a new one.
	rec, ident2 := callGate(t, users, "Bearer "+signed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on second call, got %d", rec.Code)
	}
	if ident2.Provisioned {
		t.Error("expected Provisioned=false on repeat authentication")
	}
	if ident2.UserID != ident.UserID {
		t.Errorf("expected stable user id across calls, got %s then %s", ident.UserID, ident2.UserID)
	}
}
