package handlers

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/netwatch"
	"github.com/argussec/argusgo/internal/queue"
	"github.com/argussec/argusgo/internal/storage"
	"github.com/argussec/argusgo/internal/utils"
	"github.com/argussec/argusgo/internal/websocket"
)

const testPairingCode = "482913"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate identity keys: %v", err)
	}
	identity := &utils.AgentIdentity{
		AgentID:    "agent-test",
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(priv),
	}

	codeHash, err := utils.HashPairingCode(testPairingCode)
	if err != nil {
		t.Fatalf("failed to hash pairing code: %v", err)
	}

	cfg := &config.Config{
		Port:            "8091",
		JWTSecret:       "test-secret",
		PairingCodeHash: codeHash,
		Queue:           config.DefaultQueueConfig(),
	}

	// Empty probe URL pins the watcher offline, so no pass ever runs
	// behind these tests' backs.
	watcher := netwatch.NewMonitor("", time.Minute, nil)

	svc, err := queue.New(queue.Options{
		Store:   storage.NewMemStore(),
		Watcher: watcher,
		Config:  cfg.Queue,
	})
	if err != nil {
		t.Fatalf("failed to build queue service: %v", err)
	}

	return NewRouter(Deps{
		Config:   cfg,
		Queue:    svc,
		Hub:      websocket.NewHub(),
		Watcher:  watcher,
		Identity: identity,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// pairShell runs the pairing handshake and returns the token pair
func pairShellTokens(t *testing.T, h http.Handler) (string, string) {
	t.Helper()

	rec := doRequest(t, h, "POST", "/api/auth/pair", "", map[string]string{
		"code":       testPairingCode,
		"deviceName": "Pixel Shell",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pairing failed: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode pair response: %v", err)
	}
	if !strings.HasPrefix(resp.DeviceID, "shell_") {
		t.Errorf("deviceId = %q, want shell_ prefix", resp.DeviceID)
	}
	return resp.Tokens.AccessToken, resp.Tokens.RefreshToken
}

func TestPairingAndTokenFlow(t *testing.T) {
	h := newTestRouter(t).Handler()

	// Wrong code is rejected
	rec := doRequest(t, h, "POST", "/api/auth/pair", "", map[string]string{"code": "000000"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong code: status = %d, want 401", rec.Code)
	}

	access, refresh := pairShellTokens(t, h)

	// Access token opens the API
	rec = doRequest(t, h, "GET", "/api/queue/size", access, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("authorized request: status = %d, want 200", rec.Code)
	}

	// No token is rejected
	rec = doRequest(t, h, "GET", "/api/queue/size", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	// Refresh tokens cannot access the API directly
	rec = doRequest(t, h, "GET", "/api/queue/size", refresh, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token as access: status = %d, want 401", rec.Code)
	}

	// But they mint new pairs
	rec = doRequest(t, h, "POST", "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var refreshed struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&refreshed); err != nil {
		t.Fatalf("failed to decode refresh response: %v", err)
	}
	rec = doRequest(t, h, "GET", "/api/queue/size", refreshed.Tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("refreshed access token: status = %d, want 200", rec.Code)
	}
}

func TestCaseInsensitiveRouting(t *testing.T) {
	h := newTestRouter(t).Handler()

	rec := doRequest(t, h, "GET", "/HEALTH", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /HEALTH: status = %d, want 200", rec.Code)
	}
}

func TestQueueEndpoints(t *testing.T) {
	h := newTestRouter(t).Handler()
	access, _ := pairShellTokens(t, h)

	// Buffer a raw operation
	rec := doRequest(t, h, "POST", "/api/queue", access, map[string]interface{}{
		"kind":     "mutation",
		"name":     "AckAlert",
		"document": "mutation AckAlert($id: ID!) { ackAlert(id: $id) { id } }",
		"variables": map[string]string{
			"id": "alert_1",
		},
		"priority": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("enqueue: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Subscriptions are rejected
	rec = doRequest(t, h, "POST", "/api/queue", access, map[string]interface{}{
		"kind":     "subscription",
		"document": "subscription { alerts { id } }",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("subscription enqueue: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, h, "GET", "/api/queue/operations", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list operations: status = %d", rec.Code)
	}
	var ops []models.Operation
	if err := json.NewDecoder(rec.Body).Decode(&ops); err != nil {
		t.Fatalf("failed to decode operations: %v", err)
	}
	if len(ops) != 1 || ops[0].Name != "AckAlert" {
		t.Errorf("operations = %+v, want one AckAlert", ops)
	}

	// Agent is offline, manual sync answers conflict
	rec = doRequest(t, h, "POST", "/api/queue/sync", access, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("sync while offline: status = %d, want 409", rec.Code)
	}

	// History needs a persistent store
	rec = doRequest(t, h, "GET", "/api/sync/history", access, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("history without db: status = %d, want 503", rec.Code)
	}

	rec = doRequest(t, h, "DELETE", "/api/queue", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear queue: status = %d", rec.Code)
	}
	rec = doRequest(t, h, "GET", "/api/queue/size", access, nil)
	var size struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&size); err != nil {
		t.Fatalf("failed to decode size: %v", err)
	}
	if size.Size != 0 {
		t.Errorf("size after clear = %d, want 0", size.Size)
	}
}

func TestIncidentEndpoints(t *testing.T) {
	h := newTestRouter(t).Handler()
	access, _ := pairShellTokens(t, h)

	// Missing title is rejected
	rec := doRequest(t, h, "POST", "/api/incidents", access, map[string]string{"description": "no title"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create without title: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, h, "POST", "/api/incidents", access, map[string]interface{}{
		"title":       "Tailgating at main entrance",
		"description": "Two people entered on one badge swipe",
		"severity":    "high",
		"tags":        []string{"access-control"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create incident: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Incident models.Incident `json:"incident"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode created incident: %v", err)
	}
	id := created.Incident.ID
	if !strings.HasPrefix(id, "inc_") {
		t.Errorf("incident id = %q, want inc_ prefix", id)
	}

	rec = doRequest(t, h, "GET", "/api/incidents/"+id, access, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get incident: status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, h, "GET", "/api/incidents?status=draft", access, nil)
	var listed struct {
		Count     int               `json:"count"`
		Incidents []models.Incident `json:"incidents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode incident list: %v", err)
	}
	if listed.Count != 1 {
		t.Errorf("draft incidents = %d, want 1", listed.Count)
	}

	// Unknown severity in a patch is rejected
	rec = doRequest(t, h, "PUT", "/api/incidents/"+id, access, map[string]string{"severity": "extreme"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad severity patch: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, h, "PUT", "/api/incidents/unknown-id", access, map[string]string{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("patch unknown incident: status = %d, want 404", rec.Code)
	}

	// Only failed incidents can be requeued
	rec = doRequest(t, h, "POST", "/api/incidents/"+id+"/requeue", access, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("requeue non-failed: status = %d, want 409", rec.Code)
	}

	// Triage helper is not configured in tests
	rec = doRequest(t, h, "POST", "/api/incidents/"+id+"/triage", access, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("triage unconfigured: status = %d, want 503", rec.Code)
	}

	rec = doRequest(t, h, "GET", "/api/incidents/"+id+"/report.pdf", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("incident report: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("report content type = %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("report body is not a PDF document")
	}
}

func TestPairingQRAndSignedInfo(t *testing.T) {
	router := newTestRouter(t)
	h := router.Handler()

	rec := doRequest(t, h, "GET", "/pair/qr", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pair QR: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("QR content type = %q, want image/png", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("QR body is not a PNG image")
	}

	rec = doRequest(t, h, "GET", "/pair/info", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pair info: status = %d", rec.Code)
	}
	var info struct {
		AgentID   string   `json:"agentId"`
		PublicKey string   `json:"publicKey"`
		URLs      []string `json:"urls"`
		Signature string   `json:"signature"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode pair info: %v", err)
	}

	message := info.AgentID + "|" + info.PublicKey + "|" + strings.Join(info.URLs, ",")
	ok, err := utils.VerifySignature(info.PublicKey, message, info.Signature)
	if err != nil {
		t.Fatalf("signature verification errored: %v", err)
	}
	if !ok {
		t.Error("pairing info signature does not verify")
	}
}

func TestFeedRequiresToken(t *testing.T) {
	h := newTestRouter(t).Handler()

	rec := doRequest(t, h, "GET", "/ws", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("feed without token: status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, h, "GET", "/ws?token=not-a-jwt", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("feed with junk token: status = %d, want 401", rec.Code)
	}
}
