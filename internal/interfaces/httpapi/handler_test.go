package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/infrastructure/repository/memory"
	"github.com/campus-sports/livematch/internal/usecase"
)

const (
	testAdminToken = "test-admin-token"
	testJobToken   = "test-job-token"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewLiveFixtureStore(memory.SeedDocuments())
	matchSvc := usecase.NewLiveMatchService(store, lineup.Rules{MaxBench: 9}, nil, logger)
	reconcileSvc := usecase.NewReconcileService(matchSvc, 2, logger)
	handler := NewHandler(matchSvc, reconcileSvc, logger)

	return NewRouter(handler, logger, []string{"*"}, testAdminToken, testJobToken)
}

type testEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope testEnvelope
	if len(rec.Body.Bytes()) > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal envelope (%s %s): %v: %s", method, path, err, rec.Body.String())
		}
	}
	return rec, envelope
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doRequest(t, router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if envelope.Code != codeSuccess {
		t.Fatalf("expected code %s, got %s", codeSuccess, envelope.Code)
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	body := `{"type":"corner","team":"home","minute":5}`
	rec, envelope := doRequest(t, router, http.MethodPost, "/v1/fixtures/"+memory.FixtureIDDerby+"/events", "", body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if envelope.Code != codeFailed {
		t.Fatalf("expected code %s, got %s", codeFailed, envelope.Code)
	}
}

func TestRouter_AddGoalAndReadBack(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	body := `{
		"type": "goal",
		"team": "home",
		"minute": 23,
		"commentary": "low drive from the edge of the box",
		"goal": {
			"scorer": {"playerId": "ncw-fwd-01"},
			"assist": {"playerId": "ncw-mid-03"},
			"goalType": "regular"
		}
	}`
	rec, envelope := doRequest(t, router, http.MethodPost, path+"/events", testAdminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created eventDTO
	if err := sonic.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("unmarshal created event: %v", err)
	}
	if created.ID == "" || created.Type != "goal" || created.Minute != 23 {
		t.Fatalf("unexpected created event: %+v", created)
	}
	if created.Goal == nil || created.Goal.Scorer.PlayerID != "ncw-fwd-01" {
		t.Fatalf("goal detail missing: %+v", created.Goal)
	}

	rec, envelope = doRequest(t, router, http.MethodGet, path+"/statistics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var stats statisticsDTO
	if err := sonic.Unmarshal(envelope.Data, &stats); err != nil {
		t.Fatalf("unmarshal statistics: %v", err)
	}
	if stats.Home.Goals != 1 || stats.Away.Goals != 0 {
		t.Fatalf("statistics do not reflect the goal: %+v", stats)
	}

	rec, envelope = doRequest(t, router, http.MethodGet, path+"/timeline", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var timeline []eventDTO
	if err := sonic.Unmarshal(envelope.Data, &timeline); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if len(timeline) != 1 || timeline[0].ID != created.ID {
		t.Fatalf("timeline does not hold the created event: %+v", timeline)
	}
}

func TestRouter_EditAndDeleteEvent(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	body := `{"type":"yellow-card","team":"away","minute":30,"card":{"player":{"playerId":"rsf-mid-01"}}}`
	rec, envelope := doRequest(t, router, http.MethodPost, path+"/events", testAdminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add card: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created eventDTO
	if err := sonic.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("unmarshal created event: %v", err)
	}

	rec, envelope = doRequest(t, router, http.MethodPatch, path+"/events/"+created.ID, testAdminToken, `{"minute":32}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated eventDTO
	if err := sonic.Unmarshal(envelope.Data, &updated); err != nil {
		t.Fatalf("unmarshal updated event: %v", err)
	}
	if updated.Minute != 32 {
		t.Fatalf("minute patch not applied: %+v", updated)
	}

	rec, _ = doRequest(t, router, http.MethodDelete, path+"/events/"+created.ID, testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodDelete, path+"/events/"+created.ID, testAdminToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_SubstitutionUpdatesLineup(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	body := `{
		"type": "substitution",
		"team": "home",
		"minute": 60,
		"substitution": {
			"playerOut": {"playerId": "ncw-mid-01"},
			"playerIn": {"playerId": "ncw-mid-04"}
		}
	}`
	rec, _ := doRequest(t, router, http.MethodPost, path+"/events", testAdminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("substitution: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope := doRequest(t, router, http.MethodGet, path+"/lineup/home", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lineup: expected 200, got %d", rec.Code)
	}
	var state lineupStateDTO
	if err := sonic.Unmarshal(envelope.Data, &state); err != nil {
		t.Fatalf("unmarshal lineup: %v", err)
	}

	onPitch := func(id string) bool {
		for _, candidate := range state.StartingXI {
			if candidate == id {
				return true
			}
		}
		return false
	}
	if !onPitch("ncw-mid-04") || onPitch("ncw-mid-01") {
		t.Fatalf("substitution not reflected in lineup: %v", state.StartingXI)
	}
	if len(state.CameOff) != 1 || state.CameOff[0] != "ncw-mid-01" {
		t.Fatalf("came-off list wrong: %v", state.CameOff)
	}
}

func TestRouter_InvalidSubstitutionRejected(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	// ncw-fwd-04 starts on the bench, so they cannot come off.
	body := `{
		"type": "substitution",
		"team": "home",
		"minute": 60,
		"substitution": {
			"playerOut": {"playerId": "ncw-fwd-04"},
			"playerIn": {"playerId": "ncw-mid-04"}
		}
	}`
	rec, envelope := doRequest(t, router, http.MethodPost, path+"/events", testAdminToken, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if envelope.Code != codeFailed {
		t.Fatalf("expected code %s, got %s", codeFailed, envelope.Code)
	}

	// The failed event must not appear on the timeline.
	rec, envelope = doRequest(t, router, http.MethodGet, path+"/timeline", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("timeline: expected 200, got %d", rec.Code)
	}
	var timeline []eventDTO
	if err := sonic.Unmarshal(envelope.Data, &timeline); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if len(timeline) != 0 {
		t.Fatalf("rejected event leaked into the timeline: %+v", timeline)
	}
}

func TestRouter_PhaseMarkerMovesStatus(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	rec, _ := doRequest(t, router, http.MethodPost, path+"/phase", testAdminToken, `{"phase":"kickoff","minute":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("kickoff: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope := doRequest(t, router, http.MethodGet, path, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", rec.Code)
	}
	var snapshot snapshotDTO
	if err := sonic.Unmarshal(envelope.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snapshot.Status != "LIVE" {
		t.Fatalf("kickoff should move the fixture to LIVE, got %s", snapshot.Status)
	}
}

func TestRouter_SaveFormation(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	home := `{"formation":"4-2-3-1","startingXI":["ncw-gk-01","ncw-def-01","ncw-def-02","ncw-def-03","ncw-def-04","ncw-mid-01","ncw-mid-02","ncw-mid-03","ncw-mid-04","ncw-fwd-01","ncw-fwd-02"],"substitutes":["ncw-gk-02","ncw-fwd-03"]}`
	away := `{"formation":"4-4-2","startingXI":["rsf-gk-01","rsf-def-01","rsf-def-02","rsf-def-03","rsf-def-04","rsf-mid-01","rsf-mid-02","rsf-mid-03","rsf-mid-04","rsf-fwd-01","rsf-fwd-02"],"substitutes":["rsf-gk-02"]}`
	body := fmt.Sprintf(`{"home":%s,"away":%s}`, home, away)

	rec, _ := doRequest(t, router, http.MethodPut, path+"/formation", testAdminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("save formation: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope := doRequest(t, router, http.MethodGet, path+"/lineup/home", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lineup: expected 200, got %d", rec.Code)
	}
	var state lineupStateDTO
	if err := sonic.Unmarshal(envelope.Data, &state); err != nil {
		t.Fatalf("unmarshal lineup: %v", err)
	}
	if state.Formation != "4-2-3-1" {
		t.Fatalf("formation not applied, got %q", state.Formation)
	}
}

func TestRouter_LineupRejectsUnknownSide(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/fixtures/"+memory.FixtureIDDerby+"/lineup/neutral", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_UnknownFixture(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/fixtures/fx-missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_RejectsUnknownJSONFields(t *testing.T) {
	router := newTestRouter(t)

	body := `{"type":"corner","team":"home","minute":5,"unexpected":true}`
	rec, _ := doRequest(t, router, http.MethodPost, "/v1/fixtures/"+memory.FixtureIDDerby+"/events", testAdminToken, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_SetClock(t *testing.T) {
	router := newTestRouter(t)
	path := "/v1/fixtures/" + memory.FixtureIDDerby

	rec, _ := doRequest(t, router, http.MethodPut, path+"/clock", testAdminToken, `{"minute":47,"injuryTime":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set clock: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope := doRequest(t, router, http.MethodGet, path, "", "")
	var snapshot snapshotDTO
	if err := sonic.Unmarshal(envelope.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snapshot.CurrentMinute != 47 || !snapshot.InjuryTime {
		t.Fatalf("clock not reflected in snapshot: %+v", snapshot)
	}
}

func TestRouter_InternalReconcile(t *testing.T) {
	router := newTestRouter(t)

	// Track a fixture first so the run has work to do.
	rec, _ := doRequest(t, router, http.MethodGet, "/v1/fixtures/"+memory.FixtureIDDerby, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("warm up snapshot: expected 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/reconcile", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("reconcile: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var envelope testEnvelope
	if err := sonic.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var result reconcileResultDTO
	if err := sonic.Unmarshal(envelope.Data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Success != 1 || len(result.Tasks) != 1 {
		t.Fatalf("unexpected reconcile result: %+v", result)
	}
	if result.Tasks[0].Action != "reload" {
		t.Fatalf("clean fixture should reload, got %q", result.Tasks[0].Action)
	}

	// Without the job token the route is closed.
	req = httptest.NewRequest(http.MethodPost, "/v1/internal/reconcile", nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without job token, got %d", recorder.Code)
	}
}
