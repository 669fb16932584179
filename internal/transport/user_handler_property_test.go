package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// Mock repository for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Username]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, exists := m.users[username]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func newTestUserHandler() (*UserHandler, service.UserService) {
	userService := service.NewUserService(newMockUserRepository(), "test-secret", 30)
	return NewUserHandler(userService, 30, zap.NewNop()), userService
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			return c
		}
	}
	return nil
}

// Feature: pepperbot, Property 12: Malformed registration payloads are
// rejected with the validation envelope
func TestProperty_InvalidRegistrationIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("invalid registration data returns 400 with an error body", prop.ForAll(
		func(invalidCase int) bool {
			handler, _ := newTestUserHandler()

			var reqBody RegisterRequest
			switch invalidCase % 4 {
			case 0:
				reqBody = RegisterRequest{Username: "", Email: "alice@example.com", Password: "ValidPass123"}
			case 1:
				reqBody = RegisterRequest{Username: "alice", Email: "not-an-email", Password: "ValidPass123"}
			case 2:
				reqBody = RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"}
			case 3:
				reqBody = RegisterRequest{Username: "al", Email: "alice@example.com", Password: "ValidPass123"}
			}

			body, _ := json.Marshal(reqBody)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: expected 400, got %d", w.Code)
				return false
			}

			var response map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Logf("FAIL: could not decode error response: %v", err)
				return false
			}
			if _, exists := response["error"]; !exists {
				t.Log("FAIL: response missing 'error' field")
				return false
			}

			return true
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pepperbot, Property 13: Successful registration returns the
// public profile and never the password hash
func TestProperty_RegistrationReturnsProfile(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration returns a complete profile", prop.ForAll(
		func(username, email, password string) bool {
			handler, _ := newTestUserHandler()

			body, _ := json.Marshal(RegisterRequest{Username: username, Email: email, Password: password})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != http.StatusCreated {
				t.Logf("FAIL: expected 201, got %d", w.Code)
				return false
			}

			raw := w.Body.Bytes()

			var profile UserProfile
			if err := json.Unmarshal(raw, &profile); err != nil {
				t.Logf("FAIL: could not decode profile: %v", err)
				return false
			}

			if _, err := uuid.Parse(profile.ID); err != nil {
				t.Logf("FAIL: profile ID is not a UUID: %v", err)
				return false
			}
			if profile.Username != username || profile.Email != email {
				t.Logf("FAIL: profile mismatch: %+v", profile)
				return false
			}
			if !profile.IsActive {
				t.Log("FAIL: new accounts must start active")
				return false
			}

			if bytes.Contains(raw, []byte(password)) {
				t.Log("FAIL: response leaks the password")
				return false
			}

			return true
		},
		gen.RegexMatch(`[a-z]{3,12}`),
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pepperbot, Property 14: Login answers with a bearer token and
// an httponly session cookie carrying the same token
func TestProperty_LoginSetsSessionCookie(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("login returns the token in body and cookie", prop.ForAll(
		func(username, email, password string) bool {
			handler, userService := newTestUserHandler()

			if _, err := userService.Register(context.Background(), username, email, password); err != nil {
				return true
			}

			body, _ := json.Marshal(LoginRequest{Username: username, Password: password})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Login(w, req)

			if w.Code != http.StatusOK {
				t.Logf("FAIL: expected 200, got %d", w.Code)
				return false
			}

			var tokenResp TokenResponse
			if err := json.NewDecoder(w.Body).Decode(&tokenResp); err != nil {
				t.Logf("FAIL: could not decode token response: %v", err)
				return false
			}
			if tokenResp.AccessToken == "" || tokenResp.TokenType != "bearer" {
				t.Logf("FAIL: bad token response: %+v", tokenResp)
				return false
			}

			cookie := sessionCookie(w.Result())
			if cookie == nil {
				t.Log("FAIL: session cookie not set")
				return false
			}
			if !cookie.HttpOnly {
				t.Log("FAIL: session cookie must be httponly")
				return false
			}
			if cookie.Value != tokenResp.AccessToken {
				t.Log("FAIL: cookie and body token differ")
				return false
			}

			subject, err := userService.ValidateToken(tokenResp.AccessToken)
			if err != nil || subject != username {
				t.Logf("FAIL: token does not validate to %q: %v", username, err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[a-z]{3,12}`),
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler, userService := newTestUserHandler()

	if _, err := userService.Register(context.Background(), "alice", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	body, _ := json.Marshal(LoginRequest{Username: "alice", Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if sessionCookie(w.Result()) != nil {
		t.Fatal("failed logins must not set a session cookie")
	}
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	handler, _ := newTestUserHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	w := httptest.NewRecorder()

	handler.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	cookie := sessionCookie(w.Result())
	if cookie == nil {
		t.Fatal("logout must rewrite the session cookie")
	}
	if cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("logout cookie must expire immediately, got MaxAge=%d Value=%q", cookie.MaxAge, cookie.Value)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	handler, userService := newTestUserHandler()

	if _, err := userService.Register(context.Background(), "alice", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	body, _ := json.Marshal(RegisterRequest{Username: "alice", Email: "other@example.com", Password: "whatever123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", w.Code)
	}
}
