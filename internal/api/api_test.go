package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/blob"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage/memory"
	"github.com/clipstack/clipstack/internal/tiktok"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const redirectURI = "https://app.example.com/tiktok/callback"

type testServer struct {
	t      *testing.T
	store  *memory.Store
	hasher *auth.Hasher
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.New()
	secrets := &auth.StaticSecrets{
		KeySecret: "test-api-key-secret",
		EncKey:    []byte("0123456789abcdef0123456789abcdef"),
	}
	cipher, err := auth.NewTokenCipher(secrets)
	if err != nil {
		t.Fatalf("NewTokenCipher failed: %v", err)
	}
	blobs, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hasher := auth.NewHasher(secrets)
	router := NewRouter(Deps{
		Store:          store,
		Hasher:         hasher,
		Tokens:         auth.NewTokenIssuer("test-jwt-secret", time.Hour),
		Cipher:         cipher,
		States:         auth.NewStateStore(cipher, false),
		TikTok:         tiktok.NewStub("test"),
		Blobs:          blobs,
		Logger:         logger,
		Registry:       prometheus.NewRegistry(),
		AllowedOrigins: []string{"*"},
	})

	return &testServer{t: t, store: store, hasher: hasher, router: router}
}

func (ts *testServer) newRequest(method, path string, body any) *http.Request {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

// request performs a dashboard request with an optional session token.
func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	req := ts.newRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(req)
}

// apiRequest performs an external request with an optional API key.
func (ts *testServer) apiRequest(method, path string, body any, key string) *httptest.ResponseRecorder {
	req := ts.newRequest(method, path, body)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return ts.do(req)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()

	v := new(T)
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return v
}

// register creates a user and returns its session token.
func (ts *testServer) register(email string) string {
	ts.t.Helper()

	rr := ts.request("POST", "/auth/register", &domain.RegisterRequest{
		Email:    email,
		Password: "correct-horse",
	}, "")
	if rr.Code != http.StatusCreated {
		ts.t.Fatalf("Register returned %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[domain.AuthResponse](ts.t, rr)
	if resp.Token == "" {
		ts.t.Fatal("Register returned an empty token")
	}
	return resp.Token
}

// connectAccount runs the full authorize URL plus connect flow and returns
// the new account ID.
func (ts *testServer) connectAccount(token, code string) string {
	ts.t.Helper()

	rr := ts.request("POST", "/tiktok/auth-url", &domain.AuthURLRequest{RedirectURI: redirectURI}, token)
	if rr.Code != http.StatusOK {
		ts.t.Fatalf("AuthURL returned %d: %s", rr.Code, rr.Body.String())
	}
	authResp := decode[domain.AuthURLResponse](ts.t, rr)

	u, err := url.Parse(authResp.AuthURL)
	if err != nil {
		ts.t.Fatalf("Failed to parse auth URL: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		ts.t.Fatal("Auth URL carries no state")
	}

	req := ts.newRequest("POST", "/tiktok/connect", &domain.ConnectRequest{
		Code:        code,
		State:       state,
		RedirectURI: redirectURI,
	})
	req.Header.Set("Authorization", "Bearer "+token)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	rr = ts.do(req)
	if rr.Code != http.StatusCreated {
		ts.t.Fatalf("Connect returned %d: %s", rr.Code, rr.Body.String())
	}
	account := decode[domain.TikTokAccount](ts.t, rr)
	return account.ID
}

// createKey creates an API key and returns the one-time creation response.
func (ts *testServer) createKey(token, name string, permissions []string) *domain.CreateAPIKeyResponse {
	ts.t.Helper()

	rr := ts.request("POST", "/settings/api-keys", &domain.CreateAPIKeyRequest{
		Name:        name,
		Permissions: permissions,
	}, token)
	if rr.Code != http.StatusCreated {
		ts.t.Fatalf("Create API key returned %d: %s", rr.Code, rr.Body.String())
	}
	return decode[domain.CreateAPIKeyResponse](ts.t, rr)
}

func uploadBody(accountID, title, filename string) *domain.UploadVideoRequest {
	return &domain.UploadVideoRequest{
		AccountID: accountID,
		Title:     title,
		FileData:  base64.StdEncoding.EncodeToString([]byte("fake video bytes")),
		Filename:  filename,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("GET", "/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	token := ts.register("alice@example.com")
	if token == "" {
		t.Fatal("Expected a session token")
	}

	// Duplicate email
	rr := ts.request("POST", "/auth/register", &domain.RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	}, "")
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", rr.Code)
	}

	// Bad inputs
	rr = ts.request("POST", "/auth/register", &domain.RegisterRequest{Email: "nope", Password: "correct-horse"}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid email, got %d", rr.Code)
	}
	rr = ts.request("POST", "/auth/register", &domain.RegisterRequest{Email: "bob@example.com", Password: "short"}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short password, got %d", rr.Code)
	}

	// Login
	rr = ts.request("POST", "/auth/login", &domain.LoginRequest{Email: "alice@example.com", Password: "correct-horse"}, "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 on login, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[domain.AuthResponse](t, rr)
	if resp.User.Email != "alice@example.com" {
		t.Errorf("Expected user email in response, got %s", resp.User.Email)
	}

	// Wrong password and unknown email read the same
	rr = ts.request("POST", "/auth/login", &domain.LoginRequest{Email: "alice@example.com", Password: "wrong-horse"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", rr.Code)
	}
	badPassword := rr.Body.String()
	rr = ts.request("POST", "/auth/login", &domain.LoginRequest{Email: "ghost@example.com", Password: "wrong-horse"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", rr.Code)
	}
	if rr.Body.String() != badPassword {
		t.Error("Expected identical error bodies for wrong password and unknown email")
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("GET", "/videos", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", rr.Code)
	}

	rr = ts.request("GET", "/videos", nil, "not-a-real-token")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a garbage token, got %d", rr.Code)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")

	created := ts.createKey(token, "ci-pipeline", nil)
	if !strings.HasPrefix(created.Key, "cs_") {
		t.Errorf("Expected plaintext key with cs_ prefix, got %s", created.Key)
	}
	if !strings.HasPrefix(created.Key, created.KeyPrefix) {
		t.Errorf("Expected prefix %s to match key", created.KeyPrefix)
	}
	if !created.Permissions.Contains(domain.PermissionRead) || !created.Permissions.Contains(domain.PermissionWrite) {
		t.Errorf("Expected default read+write permissions, got %v", created.Permissions)
	}

	// Listing shows the prefix but never the plaintext or the fingerprint
	rr := ts.request("GET", "/settings/api-keys", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("List returned %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, created.Key) {
		t.Error("Key list must not contain the plaintext key")
	}
	if strings.Contains(body, ts.hasher.Hash(created.Key)) {
		t.Error("Key list must not contain the key fingerprint")
	}
	if !strings.Contains(body, created.KeyPrefix) {
		t.Error("Expected key list to contain the key prefix")
	}
	var list domain.ListAPIKeysResponse
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("Failed to decode key list: %v", err)
	}
	if len(list.APIKeys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(list.APIKeys))
	}

	// Missing name
	rr = ts.request("POST", "/settings/api-keys", &domain.CreateAPIKeyRequest{}, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", rr.Code)
	}

	// Delete, then the list is empty and the key stops authenticating
	rr = ts.request("DELETE", "/settings/api-keys/"+created.ID, nil, token)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on delete, got %d", rr.Code)
	}
	rr = ts.request("GET", "/settings/api-keys", nil, token)
	remaining := decode[domain.ListAPIKeysResponse](t, rr)
	if len(remaining.APIKeys) != 0 {
		t.Errorf("Expected no keys after delete, got %d", len(remaining.APIKeys))
	}
	rr = ts.apiRequest("GET", "/api/analytics/whatever", nil, created.Key)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a deleted key, got %d", rr.Code)
	}

	// Deleting again stays a 204 no-op
	rr = ts.request("DELETE", "/settings/api-keys/"+created.ID, nil, token)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on repeated delete, got %d", rr.Code)
	}
}

func TestDeleteAPIKeyByNonOwner(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register("alice@example.com")
	mallory := ts.register("mallory@example.com")

	created := ts.createKey(alice, "ci-pipeline", nil)

	// Same response as a successful delete, but nothing happens
	rr := ts.request("DELETE", "/settings/api-keys/"+created.ID, nil, mallory)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for non-owner delete, got %d", rr.Code)
	}

	rr = ts.request("GET", "/settings/api-keys", nil, alice)
	list := decode[domain.ListAPIKeysResponse](t, rr)
	if len(list.APIKeys) != 1 {
		t.Fatalf("Expected key to survive non-owner delete, got %d keys", len(list.APIKeys))
	}
}

func TestExternalAuthAndUpload(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")
	accountID := ts.connectAccount(token, "code-1")
	created := ts.createKey(token, "ci-pipeline", nil)

	// Missing and invalid keys are unauthenticated
	rr := ts.apiRequest("POST", "/api/upload-video", uploadBody(accountID, "clip", "clip.mp4"), "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", rr.Code)
	}
	rr = ts.apiRequest("POST", "/api/upload-video", uploadBody(accountID, "clip", "clip.mp4"), "cs_0000000000000000000000000000000000000000000000000000000000000000")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with an unknown key, got %d", rr.Code)
	}

	// Valid key uploads
	rr = ts.apiRequest("POST", "/api/upload-video", uploadBody(accountID, "clip", "clip.mp4"), created.Key)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	video := decode[domain.Video](t, rr)
	if video.AccountID != accountID {
		t.Errorf("Expected video on account %s, got %s", accountID, video.AccountID)
	}
	if video.Status != domain.VideoStatusDraft {
		t.Errorf("Expected draft status, got %s", video.Status)
	}

	// The upload shows up in the dashboard listing
	rr = ts.request("GET", "/videos", nil, token)
	videos := decode[domain.ListVideosResponse](t, rr)
	if videos.Total != 1 {
		t.Errorf("Expected 1 video in dashboard, got %d", videos.Total)
	}

	// The key's last used timestamp is updated in the background
	deadline := time.Now().Add(2 * time.Second)
	for {
		key, err := ts.store.GetAPIKeyByHash(context.Background(), ts.hasher.Hash(created.Key))
		if err != nil {
			t.Fatalf("GetAPIKeyByHash failed: %v", err)
		}
		if key.LastUsedAt != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected last used timestamp to be set")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExternalPermissions(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")
	accountID := ts.connectAccount(token, "code-1")

	readOnly := ts.createKey(token, "read-only", []string{domain.PermissionRead})
	writeOnly := ts.createKey(token, "write-only", []string{domain.PermissionWrite})

	// A known key without the permission is forbidden, not unauthenticated
	rr := ts.apiRequest("POST", "/api/upload-video", uploadBody(accountID, "clip", "clip.mp4"), readOnly.Key)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for read-only upload, got %d", rr.Code)
	}
	rr = ts.apiRequest("GET", "/api/analytics/"+accountID, nil, writeOnly.Key)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for write-only analytics, got %d", rr.Code)
	}

	rr = ts.apiRequest("GET", "/api/analytics/"+accountID, nil, readOnly.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for read-only analytics, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = ts.apiRequest("POST", "/api/upload-video", uploadBody(accountID, "clip", "clip.mp4"), writeOnly.Key)
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 for write-only upload, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestExternalOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register("alice@example.com")
	aliceAccount := ts.connectAccount(alice, "code-1")

	mallory := ts.register("mallory@example.com")
	malloryKey := ts.createKey(mallory, "probe", nil)

	// Someone else's account reads as missing, never as forbidden
	rr := ts.apiRequest("POST", "/api/upload-video", uploadBody(aliceAccount, "clip", "clip.mp4"), malloryKey.Key)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for upload to foreign account, got %d", rr.Code)
	}
	rr = ts.apiRequest("GET", "/api/analytics/"+aliceAccount, nil, malloryKey.Key)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for analytics of foreign account, got %d", rr.Code)
	}
}

func TestConnectFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register("alice@example.com")

	// State mismatch is rejected
	rr := ts.request("POST", "/tiktok/connect", &domain.ConnectRequest{
		Code:        "code-1",
		State:       "forged",
		RedirectURI: redirectURI,
	}, alice)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing state cookie, got %d", rr.Code)
	}

	accountID := ts.connectAccount(alice, "code-1")

	rr = ts.request("GET", "/tiktok/accounts", nil, alice)
	accounts := decode[domain.ListAccountsResponse](t, rr)
	if len(accounts.Accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts.Accounts))
	}
	body := rr.Body.String()
	if strings.Contains(body, "stub-access-code-1") || strings.Contains(body, "stub-refresh-code-1") {
		t.Error("Account list must not contain OAuth tokens")
	}

	// Same TikTok account cannot be connected twice
	mallory := ts.register("mallory@example.com")
	rrAuth := ts.request("POST", "/tiktok/auth-url", &domain.AuthURLRequest{RedirectURI: redirectURI}, mallory)
	authResp := decode[domain.AuthURLResponse](t, rrAuth)
	u, _ := url.Parse(authResp.AuthURL)
	req := ts.newRequest("POST", "/tiktok/connect", &domain.ConnectRequest{
		Code:        "code-1",
		State:       u.Query().Get("state"),
		RedirectURI: redirectURI,
	})
	req.Header.Set("Authorization", "Bearer "+mallory)
	for _, c := range rrAuth.Result().Cookies() {
		req.AddCookie(c)
	}
	rr = ts.do(req)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for already connected account, got %d", rr.Code)
	}

	// Disconnect is owner scoped
	rr = ts.request("DELETE", "/tiktok/accounts/"+accountID, nil, mallory)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-owner disconnect, got %d", rr.Code)
	}
	rr = ts.request("DELETE", "/tiktok/accounts/"+accountID, nil, alice)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for owner disconnect, got %d", rr.Code)
	}
	rr = ts.request("GET", "/tiktok/accounts", nil, alice)
	accounts = decode[domain.ListAccountsResponse](t, rr)
	if len(accounts.Accounts) != 0 {
		t.Errorf("Expected no accounts after disconnect, got %d", len(accounts.Accounts))
	}
}

func TestVideoUpload(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")
	accountID := ts.connectAccount(token, "code-1")

	// Rejected uploads
	rr := ts.request("POST", "/videos/upload", uploadBody(accountID, "clip", "clip.exe"), token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad file type, got %d", rr.Code)
	}
	bad := uploadBody(accountID, "clip", "clip.mp4")
	bad.FileData = "not base64!!"
	rr = ts.request("POST", "/videos/upload", bad, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad base64, got %d", rr.Code)
	}
	rr = ts.request("POST", "/videos/upload", uploadBody("missing-account", "clip", "clip.mp4"), token)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown account, got %d", rr.Code)
	}

	// Draft and scheduled uploads
	rr = ts.request("POST", "/videos/upload", uploadBody(accountID, "first", "clip.mp4"), token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	scheduled := uploadBody(accountID, "second", "clip.mov")
	at := time.Now().Add(24 * time.Hour)
	scheduled.ScheduledTime = &at
	rr = ts.request("POST", "/videos/upload", scheduled, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	video := decode[domain.Video](t, rr)
	if video.Status != domain.VideoStatusScheduled {
		t.Errorf("Expected scheduled status, got %s", video.Status)
	}

	// URL registration
	rr = ts.request("POST", "/videos/upload-url", &domain.UploadVideoURLRequest{
		AccountID: accountID,
		Title:     "linked",
		URL:       "not a url",
	}, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid URL, got %d", rr.Code)
	}
	rr = ts.request("POST", "/videos/upload-url", &domain.UploadVideoURLRequest{
		AccountID: accountID,
		Title:     "linked",
		URL:       "https://cdn.example.com/clip.mp4",
	}, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	// Filtered listing
	rr = ts.request("GET", "/videos?status=scheduled", nil, token)
	videos := decode[domain.ListVideosResponse](t, rr)
	if videos.Total != 1 {
		t.Errorf("Expected 1 scheduled video, got %d", videos.Total)
	}
	rr = ts.request("GET", "/videos", nil, token)
	videos = decode[domain.ListVideosResponse](t, rr)
	if videos.Total != 3 {
		t.Errorf("Expected 3 videos, got %d", videos.Total)
	}
}

func TestAccountAnalytics(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")
	accountID := ts.connectAccount(token, "code-1")

	yesterday := time.Now().AddDate(0, 0, -1)
	for i, views := range []int64{100, 300} {
		snap := &domain.AnalyticsSnapshot{
			ID:             fmt.Sprintf("s%d", i),
			AccountID:      accountID,
			Date:           yesterday.AddDate(0, 0, -i),
			Views:          views,
			Likes:          views / 10,
			EngagementRate: 0.1,
			FollowerCount:  500,
		}
		if err := ts.store.CreateAnalyticsSnapshot(context.Background(), snap); err != nil {
			t.Fatalf("CreateAnalyticsSnapshot failed: %v", err)
		}
	}

	rr := ts.request("GET", "/analytics/account/"+accountID, nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[domain.AccountAnalyticsResponse](t, rr)
	if resp.TotalViews != 400 {
		t.Errorf("Expected 400 total views, got %d", resp.TotalViews)
	}
	if len(resp.DailyAnalytics) != 2 {
		t.Errorf("Expected 2 daily rows, got %d", len(resp.DailyAnalytics))
	}

	rr = ts.request("GET", "/analytics/account/"+accountID+"?start_date=bogus", nil, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad date, got %d", rr.Code)
	}

	// Foreign accounts read as missing
	mallory := ts.register("mallory@example.com")
	rr = ts.request("GET", "/analytics/account/"+accountID, nil, mallory)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign account, got %d", rr.Code)
	}
}

func TestVideoAnalytics(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register("alice@example.com")
	accountID := ts.connectAccount(token, "code-1")

	rr := ts.request("POST", "/videos/upload", uploadBody(accountID, "clip", "clip.mp4"), token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Upload returned %d", rr.Code)
	}
	video := decode[domain.Video](t, rr)

	snap := &domain.AnalyticsSnapshot{
		ID:             "s1",
		AccountID:      accountID,
		VideoID:        &video.ID,
		Date:           time.Now(),
		Views:          250,
		Likes:          25,
		EngagementRate: 0.1,
	}
	if err := ts.store.CreateAnalyticsSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("CreateAnalyticsSnapshot failed: %v", err)
	}

	rr = ts.request("GET", "/analytics/video/"+video.ID, nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[domain.VideoAnalyticsResponse](t, rr)
	if resp.TotalViews != 250 {
		t.Errorf("Expected 250 views, got %d", resp.TotalViews)
	}
	if resp.Title != "clip" {
		t.Errorf("Expected title clip, got %s", resp.Title)
	}

	mallory := ts.register("mallory@example.com")
	rr = ts.request("GET", "/analytics/video/"+video.ID, nil, mallory)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign video, got %d", rr.Code)
	}
}

func TestWebhook(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/webhooks/tiktok", map[string]any{
		"event_type": "video.publish.complete",
		"timestamp":  time.Now().Unix(),
	}, "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "true") {
		t.Errorf("Expected acknowledgement body, got %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.request("GET", "/health", nil, "")
	rr := ts.request("GET", "/metrics", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}
