package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gks77/user-account-service/internal/database"
	"github.com/gks77/user-account-service/internal/http/handler"
	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/router"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/security"
	"github.com/gks77/user-account-service/internal/service"
)

const (
	testPepper      = "integration-pepper-0123456789"
	testSessionTTL  = time.Hour
	testMaxSessions = 3
)

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testEnv struct {
	BaseURL string
	Client  *http.Client
	DB      *gorm.DB
	Close   func()
}

// fakeStorage stands in for object storage so the suite never needs a
// running MinIO.
type fakeStorage struct{}

func (fakeStorage) UploadAvatar(_ context.Context, userID uuid.UUID, _ io.Reader, _ int64, _ string) (string, error) {
	return fmt.Sprintf("avatars/user-%s/%s.png", userID, uuid.New()), nil
}

func (fakeStorage) DeleteAvatar(context.Context, uuid.UUID, string) error {
	return nil
}

func (fakeStorage) GenerateAvatarURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.local/" + objectKey, nil
}

func newTestEnv(t *testing.T, authRPM, apiRPM int) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := database.SeedSync(db, database.SuperuserSeed{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repository.NewUserRepository(db)
	userTypeRepo := repository.NewUserTypeRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	sessions := service.NewSessionService(sessionRepo, userRepo, testPepper, testSessionTTL, testMaxSessions, log)
	users := service.NewUserService(userRepo, userTypeRepo, sessions, log)
	addresses := service.NewAddressService(addressRepo, log)
	profiles := service.NewProfileService(profileRepo, userRepo, log)
	userTypes := service.NewUserTypeService(userTypeRepo, log)

	cookies := security.NewCookieManager("", false, "lax")
	r := router.New(router.Dependencies{
		Auth:             handler.NewAuthHandler(users, sessions, cookies),
		Users:            handler.NewUserHandler(users, sessions, fakeStorage{}, profiles),
		Sessions:         handler.NewSessionHandler(sessions),
		Addresses:        handler.NewAddressHandler(addresses),
		Profiles:         handler.NewProfileHandler(profiles),
		UserTypes:        handler.NewUserTypeHandler(userTypes),
		SessionAuth:      middleware.NewSessionAuth(sessions, users),
		Limiter:          middleware.NewLocalFixedWindowLimiter(),
		TokenPepper:      testPepper,
		AuthRateLimitRPM: authRPM,
		APIRateLimitRPM:  apiRPM,
		CORSOrigins:      []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(r)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testEnv{
		BaseURL: srv.URL,
		Client:  &http.Client{Jar: jar},
		DB:      db,
		Close:   srv.Close,
	}
}

func newAuthTestServer(t *testing.T) (string, *http.Client, func()) {
	env := newTestEnv(t, 1000, 1000)
	return env.BaseURL, env.Client, env.Close
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal envelope from %q: %v", raw, err)
		}
	}
	return resp, env
}

func doRawText(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string, _ any) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

type loginResult struct {
	UserID       uuid.UUID
	SessionID    uuid.UUID
	AccessToken  string
	RefreshToken string
}

func register(t *testing.T, client *http.Client, baseURL, email, password string) uuid.UUID {
	t.Helper()

	username := strings.SplitN(email, "@", 2)[0]
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, error %#v", email, resp.StatusCode, env.Error)
	}
	var user struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("parse register response: %v", err)
	}
	return user.ID
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) loginResult {
	t.Helper()

	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d, error %#v", email, resp.StatusCode, env.Error)
	}
	var payload struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		AccessToken  string    `json:"access_token"`
		RefreshToken string    `json:"refresh_token"`
		SessionID    uuid.UUID `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("parse login response: %v", err)
	}
	return loginResult{
		UserID:       payload.User.ID,
		SessionID:    payload.SessionID,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, email, password string) loginResult {
	t.Helper()
	register(t, client, baseURL, email, password)
	return login(t, client, baseURL, email, password)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func assertProblemDetails(t *testing.T, resp *http.Response, body string, status int, code, title, instance string) {
	t.Helper()

	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("expected problem+json content type, got %q", got)
	}
	var problem struct {
		Type     string `json:"type"`
		Title    string `json:"title"`
		Status   int    `json:"status"`
		Detail   string `json:"detail"`
		Instance string `json:"instance"`
		Code     string `json:"code"`
	}
	if err := json.Unmarshal([]byte(body), &problem); err != nil {
		t.Fatalf("unmarshal problem details from %q: %v", body, err)
	}
	if problem.Status != status || problem.Code != code || problem.Title != title || problem.Instance != instance {
		t.Fatalf("unexpected problem details: %+v", problem)
	}
	if !strings.HasPrefix(problem.Type, "urn:problem:user-account-service:") {
		t.Fatalf("unexpected problem type: %q", problem.Type)
	}
}
