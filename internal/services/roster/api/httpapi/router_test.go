package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain/authz"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer runs the full router against a temporary sqlite store.
type testServer struct {
	router *gin.Engine
	tokens *TokenManager
}

func newTestServer(t *testing.T, autoApprove bool) *testServer {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})
	tokens, err := NewTokenManager("router-test-secret")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	svc := domain.NewService(store, authz.NewGate([]string{"Officer", "Raid Leader"}), autoApprove, nil, nil)
	return &testServer{
		router: NewRouter(svc, tokens, zap.NewNop()),
		tokens: tokens,
	}
}

func (ts *testServer) token(t *testing.T, participantID string, roles ...string) string {
	t.Helper()
	raw, err := ts.tokens.Issue(domain.Actor{ParticipantID: participantID, Name: participantID, Roles: roles}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doRaw(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createParticipant(t *testing.T, token, name string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/participants", token, participantCreateRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create participant %s: status = %d, body %s", name, w.Code, w.Body.String())
	}
	env := parseResponse(t, w)
	if env.Code != "" {
		t.Fatalf("create participant %s: code = %q", name, env.Code)
	}
	id, _ := dataObject(t, env)["id"].(string)
	if id == "" {
		t.Fatalf("create participant %s: missing id", name)
	}
	return id
}

func (ts *testServer) createEvent(t *testing.T, token, date string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/events", token, eventCreateRequest{Date: date})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event %s: status = %d, body %s", date, w.Code, w.Body.String())
	}
}

func (ts *testServer) createAssignment(t *testing.T, token, date, participantID, status string, position *int) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/events/"+date+"/assignments", token, assignmentCreateRequest{
		ParticipantID: participantID,
		Status:        status,
		Position:      position,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create assignment %s/%s: status = %d, body %s", date, participantID, w.Code, w.Body.String())
	}
}

func (ts *testServer) createSwap(t *testing.T, token, date, reason string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/swaps", token, swapCreateRequest{EventDate: date, Reason: reason})
	if w.Code != http.StatusCreated {
		t.Fatalf("create swap for %s: status = %d, body %s", date, w.Code, w.Body.String())
	}
	id, _ := dataObject(t, parseResponse(t, w))["id"].(string)
	if id == "" {
		t.Fatal("create swap: missing id")
	}
	return id
}

// swapFixture is one event with a primary requester, a reserve acceptor, and
// an open swap request from the requester.
type swapFixture struct {
	requesterID string
	acceptorID  string
	requester   string
	acceptor    string
	swapID      string
}

func seedSwapFixture(t *testing.T, ts *testServer, admin string) swapFixture {
	t.Helper()
	requesterID := ts.createParticipant(t, admin, "Ashbringer")
	acceptorID := ts.createParticipant(t, admin, "Briarwind")
	ts.createEvent(t, admin, "2026-03-02")
	ts.createAssignment(t, admin, "2026-03-02", requesterID, "primary", intPtr(1))
	ts.createAssignment(t, admin, "2026-03-02", acceptorID, "reserve", nil)

	requester := ts.token(t, requesterID, "Raider")
	return swapFixture{
		requesterID: requesterID,
		acceptorID:  acceptorID,
		requester:   requester,
		acceptor:    ts.token(t, acceptorID, "Raider"),
		swapID:      ts.createSwap(t, requester, "2026-03-02", "exam week"),
	}
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return env
}

func dataObject(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	obj, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", env.Data)
	}
	return obj
}

func dataArray(t *testing.T, env Envelope) []any {
	t.Helper()
	arr, ok := env.Data.([]any)
	if !ok {
		t.Fatalf("data = %T, want array", env.Data)
	}
	return arr
}

func intPtr(v int) *int {
	return &v
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuth_RejectsUnauthenticatedRequests(t *testing.T) {
	ts := newTestServer(t, false)
	expired, err := ts.tokens.Issue(domain.Actor{ParticipantID: "p-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	cases := []struct {
		name        string
		header      string
		wantMessage string
	}{
		{"missing header", "", "authorization header is required"},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz", "authorization header must carry a bearer token"},
		{"garbage token", "Bearer not-a-token", "token is invalid"},
		{"expired token", "Bearer " + expired, "token has expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			env := parseResponse(t, w)
			if env.Code != string(apperrors.CodeUnauthorized) {
				t.Errorf("code = %q, want %q", env.Code, apperrors.CodeUnauthorized)
			}
			if env.Message != tc.wantMessage {
				t.Errorf("message = %q, want %q", env.Message, tc.wantMessage)
			}
		})
	}
}

func TestParticipants_Register_Success(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")

	w := ts.do(t, http.MethodPost, "/api/v1/participants", admin, participantCreateRequest{Name: "  Ashbringer  "})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	env := parseResponse(t, w)
	if env.Code != "" || env.Message != "ok" {
		t.Errorf("envelope = %q/%q, want empty code and ok", env.Code, env.Message)
	}
	record := dataObject(t, env)
	if record["name"] != "Ashbringer" {
		t.Errorf("name = %v, want trimmed Ashbringer", record["name"])
	}
	if id, _ := record["id"].(string); id == "" {
		t.Error("id missing")
	}
	if record["primary_count"].(float64) != 0 || record["reserve_count"].(float64) != 0 {
		t.Errorf("counters = %v/%v, want 0/0", record["primary_count"], record["reserve_count"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants", admin, nil)
	if listed := dataArray(t, parseResponse(t, w)); len(listed) != 1 {
		t.Errorf("participants = %d, want 1", len(listed))
	}
}

func TestParticipants_Register_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   apperrors.Code
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest, apperrors.CodeInvalidArgument},
		{"name too short", `{"name":"A"}`, http.StatusBadRequest, apperrors.CodeParticipantNameInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.doRaw(t, http.MethodPost, "/api/v1/participants", admin, tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if env := parseResponse(t, w); env.Code != string(tc.wantCode) {
				t.Errorf("code = %q, want %q", env.Code, tc.wantCode)
			}
		})
	}
}

func TestParticipants_Register_DuplicateName(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	ts.createParticipant(t, admin, "Ashbringer")

	w := ts.do(t, http.MethodPost, "/api/v1/participants", admin, participantCreateRequest{Name: "Ashbringer"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeDuplicateParticipant) {
		t.Errorf("code = %q, want %q", env.Code, apperrors.CodeDuplicateParticipant)
	}
}

func TestParticipants_Get_NotFound(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")

	w := ts.do(t, http.MethodGet, "/api/v1/participants/p-missing", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeNotFound) {
		t.Errorf("code = %q, want %q", env.Code, apperrors.CodeNotFound)
	}
}

func TestCharacters_RegisterAndList(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	pid := ts.createParticipant(t, admin, "Ashbringer")

	w := ts.do(t, http.MethodPost, "/api/v1/participants/"+pid+"/characters", admin, characterCreateRequest{Name: "Frostweaver", Class: "mage"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register first character: status = %d, body %s", w.Code, w.Body.String())
	}
	first := dataObject(t, parseResponse(t, w))
	if first["class"] != "Mage" {
		t.Errorf("class = %v, want normalized Mage", first["class"])
	}
	if first["main"] != true {
		t.Error("first character should become main")
	}

	w = ts.do(t, http.MethodPost, "/api/v1/participants/"+pid+"/characters", admin, characterCreateRequest{Name: "Oakenshield", Class: "Druid", Main: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("register second character: status = %d, body %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants/"+pid+"/characters", admin, nil)
	listed := dataArray(t, parseResponse(t, w))
	if len(listed) != 2 {
		t.Fatalf("characters = %d, want 2", len(listed))
	}
	lead := listed[0].(map[string]any)
	if lead["name"] != "Oakenshield" || lead["main"] != true {
		t.Errorf("lead character = %v, want main Oakenshield", lead)
	}
	if second := listed[1].(map[string]any); second["main"] != false {
		t.Errorf("demoted character = %v, want main false", second)
	}
}

func TestCharacters_Register_InvalidClass(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	pid := ts.createParticipant(t, admin, "Ashbringer")

	w := ts.do(t, http.MethodPost, "/api/v1/participants/"+pid+"/characters", admin, characterCreateRequest{Name: "Boneweaver", Class: "Necromancer"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeInvalidClass) {
		t.Errorf("code = %q, want %q", env.Code, apperrors.CodeInvalidClass)
	}
}

func TestEvents_CreateGetAndDuplicate(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")

	w := ts.do(t, http.MethodPost, "/api/v1/events", admin, eventCreateRequest{Date: "2026-03-02", StartTime: "19:30"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := dataObject(t, parseResponse(t, w))
	if created["date"] != "2026-03-02" || created["start_time"] != "19:30" {
		t.Errorf("created = %v", created)
	}
	if created["timezone"] != "Server Time" {
		t.Errorf("timezone = %v, want default Server Time", created["timezone"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-03-02", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if fetched := dataObject(t, parseResponse(t, w)); fetched["id"] != created["id"] {
		t.Errorf("fetched id = %v, want %v", fetched["id"], created["id"])
	}

	w = ts.do(t, http.MethodPost, "/api/v1/events", admin, eventCreateRequest{Date: "2026-03-02"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeDuplicateEvent) {
		t.Errorf("duplicate code = %q, want %q", env.Code, apperrors.CodeDuplicateEvent)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/events", admin, eventCreateRequest{Date: "03/02/2026"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-03-09", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing event status = %d, want 404", w.Code)
	}
}

func TestEvents_Schedule_Annotate(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	ts.createEvent(t, admin, "2026-03-02")

	w := ts.do(t, http.MethodPut, "/api/v1/events/2026-03-02/schedule", admin, eventAnnotateRequest{StartTime: "20:15", Timezone: "CET"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	updated := dataObject(t, parseResponse(t, w))
	if updated["start_time"] != "20:15" || updated["timezone"] != "CET" {
		t.Errorf("updated = %v", updated)
	}

	w = ts.do(t, http.MethodPut, "/api/v1/events/2026-03-09/schedule", admin, eventAnnotateRequest{StartTime: "20:15"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing event status = %d, want 404", w.Code)
	}
}

func TestEvents_List_FromDateAndLimit(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	for _, date := range []string{"2026-04-01", "2026-04-08", "2026-04-15"} {
		ts.createEvent(t, admin, date)
	}

	w := ts.do(t, http.MethodGet, "/api/v1/events?from=2026-04-05", admin, nil)
	listed := dataArray(t, parseResponse(t, w))
	if len(listed) != 2 {
		t.Fatalf("events = %d, want 2", len(listed))
	}
	if first := listed[0].(map[string]any); first["date"] != "2026-04-08" {
		t.Errorf("first date = %v, want 2026-04-08", first["date"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events?from=2026-04-05&limit=1", admin, nil)
	if listed := dataArray(t, parseResponse(t, w)); len(listed) != 1 {
		t.Errorf("limited events = %d, want 1", len(listed))
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events?from=2026-04-05&limit=abc", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeInvalidArgument) {
		t.Errorf("bad limit code = %q, want %q", env.Code, apperrors.CodeInvalidArgument)
	}
}

func TestAssignments_CreateAndRosterOrder(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	ts.createEvent(t, admin, "2026-05-05")

	briarID := ts.createParticipant(t, admin, "Briarwind")
	ashID := ts.createParticipant(t, admin, "Ashbringer")
	aldID := ts.createParticipant(t, admin, "Aldranath")

	ts.createAssignment(t, admin, "2026-05-05", briarID, "primary", intPtr(2))
	ts.createAssignment(t, admin, "2026-05-05", ashID, "primary", intPtr(1))
	ts.createAssignment(t, admin, "2026-05-05", aldID, "reserve", nil)

	w := ts.do(t, http.MethodGet, "/api/v1/events/2026-05-05/roster", admin, nil)
	roster := dataArray(t, parseResponse(t, w))
	if len(roster) != 3 {
		t.Fatalf("roster = %d entries, want 3", len(roster))
	}
	names := make([]string, 0, len(roster))
	for _, raw := range roster {
		names = append(names, raw.(map[string]any)["participant_name"].(string))
	}
	if names[0] != "Ashbringer" || names[1] != "Briarwind" || names[2] != "Aldranath" {
		t.Errorf("roster order = %v, want positioned first then reserves", names)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/events/2026-05-05/assignments", admin, assignmentCreateRequest{ParticipantID: ashID})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeDuplicateAssignment) {
		t.Errorf("duplicate code = %q, want %q", env.Code, apperrors.CodeDuplicateAssignment)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/events/2026-05-05/assignments", admin, assignmentCreateRequest{
		ParticipantID: ts.createParticipant(t, admin, "Caelum"),
		Status:        "reserve",
		Position:      intPtr(4),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reserve with position status = %d, want 400", w.Code)
	}
}

func TestAssignments_DefaultSlotLabelUsesMainCharacter(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	pid := ts.createParticipant(t, admin, "Ashbringer")
	ts.createEvent(t, admin, "2026-05-05")

	w := ts.do(t, http.MethodPost, "/api/v1/participants/"+pid+"/characters", admin, characterCreateRequest{Name: "Frostweaver", Class: "Mage"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register character: status = %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/events/2026-05-05/assignments", admin, assignmentCreateRequest{ParticipantID: pid})
	if w.Code != http.StatusCreated {
		t.Fatalf("create assignment: status = %d, body %s", w.Code, w.Body.String())
	}
	created := dataObject(t, parseResponse(t, w))
	if created["slot_label"] != "Frostweaver" {
		t.Errorf("slot label = %v, want main character name", created["slot_label"])
	}
	if created["status"] != "primary" {
		t.Errorf("status = %v, want default primary", created["status"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-05-05/roster", admin, nil)
	roster := dataArray(t, parseResponse(t, w))
	if len(roster) != 1 {
		t.Fatalf("roster = %d entries, want 1", len(roster))
	}
	if entry := roster[0].(map[string]any); entry["class"] != "Mage" {
		t.Errorf("class = %v, want Mage", entry["class"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants/"+pid, admin, nil)
	if stats := dataObject(t, parseResponse(t, w)); stats["primary_count"].(float64) != 1 {
		t.Errorf("primary count = %v, want 1 after placement", stats["primary_count"])
	}
}

func TestAssignments_SetStatusAndRemove(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	pid := ts.createParticipant(t, admin, "Ashbringer")
	ts.createEvent(t, admin, "2026-05-05")
	ts.createAssignment(t, admin, "2026-05-05", pid, "primary", nil)

	w := ts.do(t, http.MethodPatch, "/api/v1/events/2026-05-05/assignments/"+pid, admin, assignmentStatusRequest{Status: "absent"})
	if w.Code != http.StatusOK {
		t.Fatalf("set status: %d, body %s", w.Code, w.Body.String())
	}
	if updated := dataObject(t, parseResponse(t, w)); updated["status"] != "absent" {
		t.Errorf("status = %v, want absent", updated["status"])
	}

	w = ts.do(t, http.MethodPatch, "/api/v1/events/2026-05-05/assignments/"+pid, admin, assignmentStatusRequest{Status: "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: %d, want 400", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeInvalidAssignmentStatus) {
		t.Errorf("invalid status code = %q, want %q", env.Code, apperrors.CodeInvalidAssignmentStatus)
	}

	w = ts.do(t, http.MethodPatch, "/api/v1/events/2026-05-05/assignments/p-missing", admin, assignmentStatusRequest{Status: "absent"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing assignment: %d, want 404", w.Code)
	}

	for i := 0; i < 2; i++ {
		w = ts.do(t, http.MethodDelete, "/api/v1/events/2026-05-05/assignments/"+pid, admin, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("remove pass %d: status = %d, body %s", i+1, w.Code, w.Body.String())
		}
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-05-05/roster", admin, nil)
	if roster := dataArray(t, parseResponse(t, w)); len(roster) != 0 {
		t.Errorf("roster after removal = %d entries, want 0", len(roster))
	}
}

func TestSwaps_Lifecycle_AcceptThenApprove(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodGet, "/api/v1/events/2026-03-02/swaps", admin, nil)
	pending := dataArray(t, parseResponse(t, w))
	if len(pending) != 1 {
		t.Fatalf("event swaps = %d, want 1", len(pending))
	}
	detail := pending[0].(map[string]any)
	if detail["requester_name"] != "Ashbringer" || detail["event_date"] != "2026-03-02" {
		t.Errorf("detail = %v", detail)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants/"+fx.requesterID+"/swaps", admin, nil)
	if mine := dataArray(t, parseResponse(t, w)); len(mine) != 1 {
		t.Fatalf("requester swaps = %d, want 1", len(mine))
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants/"+fx.requesterID, admin, nil)
	if stats := dataObject(t, parseResponse(t, w)); stats["unresolved_swap_count"].(float64) != 1 {
		t.Errorf("unresolved count = %v, want 1", stats["unresolved_swap_count"])
	}

	w = ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/accept", fx.acceptor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", w.Code, w.Body.String())
	}
	accepted := dataObject(t, parseResponse(t, w))
	if accepted["status"] != "accepted" || accepted["acceptor_id"] != fx.acceptorID {
		t.Errorf("accepted = %v", accepted)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/approve", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", w.Code, w.Body.String())
	}
	approved := dataObject(t, parseResponse(t, w))
	if approved["status"] != "approved" {
		t.Errorf("approved status = %v", approved["status"])
	}
	if approved["resolved_at"] == nil {
		t.Error("resolved_at missing after approval")
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-03-02/roster", admin, nil)
	roster := dataArray(t, parseResponse(t, w))
	if len(roster) != 2 {
		t.Fatalf("roster = %d entries, want 2", len(roster))
	}
	byID := make(map[string]map[string]any, len(roster))
	for _, raw := range roster {
		entry := raw.(map[string]any)
		byID[entry["participant_id"].(string)] = entry
	}
	if byID[fx.acceptorID]["status"] != "primary" || byID[fx.acceptorID]["position"].(float64) != 1 {
		t.Errorf("acceptor entry = %v, want primary at position 1", byID[fx.acceptorID])
	}
	if byID[fx.requesterID]["status"] != "reserve" {
		t.Errorf("requester entry = %v, want reserve", byID[fx.requesterID])
	}
	if _, hasPosition := byID[fx.requesterID]["position"]; hasPosition {
		t.Errorf("requester entry = %v, position should be cleared", byID[fx.requesterID])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/participants/"+fx.acceptorID, admin, nil)
	stats := dataObject(t, parseResponse(t, w))
	if stats["primary_count"].(float64) != 1 || stats["reserve_count"].(float64) != 0 {
		t.Errorf("acceptor counters = %v/%v, want 1/0", stats["primary_count"], stats["reserve_count"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/swaps", admin, nil)
	if remaining := dataArray(t, parseResponse(t, w)); len(remaining) != 0 {
		t.Errorf("unresolved swaps after approval = %d, want 0", len(remaining))
	}
}

func TestSwaps_Accept_AutoApproveExecutesExchange(t *testing.T) {
	ts := newTestServer(t, true)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/accept", fx.acceptor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", w.Code, w.Body.String())
	}
	if record := dataObject(t, parseResponse(t, w)); record["status"] != "approved" {
		t.Errorf("status = %v, want approved under auto-approve", record["status"])
	}

	w = ts.do(t, http.MethodGet, "/api/v1/events/2026-03-02/roster", admin, nil)
	for _, raw := range dataArray(t, parseResponse(t, w)) {
		entry := raw.(map[string]any)
		switch entry["participant_id"] {
		case fx.acceptorID:
			if entry["status"] != "primary" || entry["position"].(float64) != 1 {
				t.Errorf("acceptor entry = %v, want primary at position 1", entry)
			}
		case fx.requesterID:
			if entry["status"] != "reserve" {
				t.Errorf("requester entry = %v, want reserve", entry)
			}
		}
	}
}

func TestSwaps_Deny_RequiresPrivilegedRole(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/deny", fx.acceptor, swapDenyRequest{Note: "no"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("member deny status = %d, want 403", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeUnauthorized) {
		t.Errorf("member deny code = %q, want %q", env.Code, apperrors.CodeUnauthorized)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/deny", admin, swapDenyRequest{Note: "roster is locked"})
	if w.Code != http.StatusOK {
		t.Fatalf("officer deny status = %d, body %s", w.Code, w.Body.String())
	}
	denied := dataObject(t, parseResponse(t, w))
	if denied["status"] != "denied" || denied["resolution_note"] != "roster is locked" {
		t.Errorf("denied = %v", denied)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/deny", admin, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat deny status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeInvalidTransition) {
		t.Errorf("repeat deny code = %q, want %q", env.Code, apperrors.CodeInvalidTransition)
	}
}

func TestSwaps_Cancel_RequesterOnly(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/cancel", fx.acceptor, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("other member cancel status = %d, want 403", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/cancel", fx.requester, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("requester cancel status = %d, body %s", w.Code, w.Body.String())
	}
	if cancelled := dataObject(t, parseResponse(t, w)); cancelled["status"] != "cancelled" {
		t.Errorf("status = %v, want cancelled", cancelled["status"])
	}
}

func TestSwaps_Accept_SelfSwapRejected(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/swaps/"+fx.swapID+"/accept", fx.requester, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeSelfSwap) {
		t.Errorf("code = %q, want %q", env.Code, apperrors.CodeSelfSwap)
	}
}

func TestSwaps_Create_RequiresPrimaryAssignment(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	fx := seedSwapFixture(t, ts, admin)

	w := ts.do(t, http.MethodPost, "/api/v1/swaps", fx.acceptor, swapCreateRequest{EventDate: "2026-03-02"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if env := parseResponse(t, w); env.Code != string(apperrors.CodeNotEligible) {
		t.Errorf("code = %q, want %q", env.Code, apperrors.CodeNotEligible)
	}
}

func TestCalendar_WindowedRosters(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")
	pid := ts.createParticipant(t, admin, "Ashbringer")
	for _, date := range []string{"2026-03-02", "2026-03-06", "2026-03-10"} {
		ts.createEvent(t, admin, date)
	}
	ts.createAssignment(t, admin, "2026-03-02", pid, "primary", intPtr(1))

	w := ts.do(t, http.MethodGet, "/api/v1/calendar?from=2026-03-01&weeks=1", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar status = %d, body %s", w.Code, w.Body.String())
	}
	days := dataArray(t, parseResponse(t, w))
	if len(days) != 2 {
		t.Fatalf("one-week days = %d, want 2", len(days))
	}
	first := days[0].(map[string]any)
	if event := first["event"].(map[string]any); event["date"] != "2026-03-02" {
		t.Errorf("first day = %v, want 2026-03-02", event["date"])
	}
	if roster := first["roster"].([]any); len(roster) != 1 {
		t.Errorf("first day roster = %d entries, want 1", len(roster))
	}

	w = ts.do(t, http.MethodGet, "/api/v1/calendar?from=2026-03-01", admin, nil)
	if days := dataArray(t, parseResponse(t, w)); len(days) != 3 {
		t.Errorf("default window days = %d, want 3", len(days))
	}

	w = ts.do(t, http.MethodGet, "/api/v1/calendar?from=2026-03-01&weeks=0", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("weeks=0 status = %d, want 400", w.Code)
	}
}

func TestStatsOverview_OrdersByPrimaryCount(t *testing.T) {
	ts := newTestServer(t, false)
	admin := ts.token(t, "officer-1", "Officer")

	aldID := ts.createParticipant(t, admin, "Aldranath")
	briarID := ts.createParticipant(t, admin, "Briarwind")
	ts.createParticipant(t, admin, "Caelum")

	ts.createEvent(t, admin, "2026-04-01")
	ts.createEvent(t, admin, "2026-04-08")
	ts.createAssignment(t, admin, "2026-04-01", aldID, "primary", nil)
	ts.createAssignment(t, admin, "2026-04-08", aldID, "primary", nil)
	ts.createAssignment(t, admin, "2026-04-01", briarID, "primary", nil)

	w := ts.do(t, http.MethodGet, "/api/v1/stats/overview", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("overview status = %d", w.Code)
	}
	ranked := dataArray(t, parseResponse(t, w))
	if len(ranked) != 3 {
		t.Fatalf("ranked = %d, want 3", len(ranked))
	}
	names := make([]string, 0, len(ranked))
	for _, raw := range ranked {
		names = append(names, raw.(map[string]any)["name"].(string))
	}
	if names[0] != "Aldranath" || names[1] != "Briarwind" || names[2] != "Caelum" {
		t.Errorf("ranked order = %v", names)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/stats/overview?limit=1", admin, nil)
	if ranked := dataArray(t, parseResponse(t, w)); len(ranked) != 1 {
		t.Errorf("limited ranked = %d, want 1", len(ranked))
	}
}
