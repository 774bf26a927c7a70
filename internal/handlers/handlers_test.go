package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"vet-telehealth-server/internal/demo"
)

func newTestRouter(t *testing.T) (*gin.Engine, *demo.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := demo.NewStore(nil,
		demo.WithSeed(func(time.Time) demo.Seed { return demo.Seed{} }),
		demo.WithTickInterval(time.Hour))
	t.Cleanup(store.Close)

	intakeHandler := NewIntakeHandler(store)
	queueHandler := NewQueueHandler(store)
	caseHandler := NewCaseHandler(store, nil, nil)
	videoHandler := NewVideoHandler(store)

	r := gin.New()
	// Stand-in for the auth middleware.
	r.Use(func(c *gin.Context) {
		c.Set("userID", "vet-1")
	})
	r.POST("/intake", intakeHandler.CreateIntake)
	r.GET("/queue", queueHandler.GetQueue)
	r.GET("/queue/stats", queueHandler.GetQueueStats)
	r.GET("/cases/:id", caseHandler.GetCase)
	r.PATCH("/cases/:id", caseHandler.UpdateCase)
	r.POST("/cases/:id/video-call", videoHandler.StartCall)
	r.POST("/video-calls/:id/join", videoHandler.JoinCall)
	r.POST("/video-calls/:id/end", videoHandler.EndCall)

	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func intakeBody() map[string]any {
	return map[string]any{
		"owner": map[string]any{
			"firstName": "A",
			"lastName":  "B",
			"phone":     "555-0100",
		},
		"patient": map[string]any{
			"name":    "Rex",
			"species": "dog",
			"breed":   "Beagle",
			"age":     4,
			"weight":  12.5,
		},
		"triageLevel":    "red",
		"chiefComplaint": "Hit by car",
	}
}

func TestIntakeCreatesOwnerPatientAndCase(t *testing.T) {
	r, store := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/intake", intakeBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Data IntakeResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.Owner.Name != "A B" {
		t.Fatalf("owner name = %q, want %q", resp.Data.Owner.Name, "A B")
	}
	if resp.Data.Patient.OwnerID != resp.Data.Owner.ID {
		t.Fatal("patient does not reference created owner")
	}
	cs := resp.Data.Case
	if cs.PatientID != resp.Data.Patient.ID || cs.Status != demo.StatusWaiting {
		t.Fatalf("case = %+v, want waiting case for created patient", cs)
	}
	if cs.PetName != "Rex" || cs.OwnerName != "A B" || cs.OwnerPhone != "555-0100" {
		t.Fatalf("denormalized fields = %q/%q/%q", cs.PetName, cs.OwnerName, cs.OwnerPhone)
	}
	// No vitals provided: clinical defaults apply.
	if cs.Vitals.Temperature != 38.5 || cs.Vitals.MucousMembraneColor != "Pink" {
		t.Fatalf("vitals = %+v, want clinical defaults", cs.Vitals)
	}
	if cs.Vitals.Weight != 12.5 {
		t.Fatalf("vitals weight = %v, want patient weight 12.5", cs.Vitals.Weight)
	}

	if n := len(store.Cases()); n != 1 {
		t.Fatalf("store has %d cases, want 1", n)
	}
}

func TestIntakeRejectsUnknownSpecies(t *testing.T) {
	r, _ := newTestRouter(t)

	body := intakeBody()
	body["patient"].(map[string]any)["species"] = "dragon"

	w := doJSON(t, r, http.MethodPost, "/intake", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestQueueAndStatsEndpoints(t *testing.T) {
	r, store := newTestRouter(t)

	store.AddCase(demo.Case{PetName: "A", Status: demo.StatusWaiting, TriageLevel: demo.TriageGreen})
	store.AddCase(demo.Case{PetName: "B", Status: demo.StatusWaiting, TriageLevel: demo.TriageRed})
	store.AddCase(demo.Case{PetName: "C", Status: demo.StatusCompleted, TriageLevel: demo.TriageRed})

	w := doJSON(t, r, http.MethodGet, "/queue", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var queueResp struct {
		Data []demo.Case `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &queueResp); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(queueResp.Data) != 2 {
		t.Fatalf("open queue has %d cases, want 2", len(queueResp.Data))
	}
	if queueResp.Data[0].PetName != "B" {
		t.Fatalf("first queued case = %q, want red case first", queueResp.Data[0].PetName)
	}

	w = doJSON(t, r, http.MethodGet, "/queue/stats", nil)
	var statsResp struct {
		Data demo.QueueStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if statsResp.Data.TotalCases != 3 || statsResp.Data.WaitingCases != 2 || statsResp.Data.RedTriageCases != 1 {
		t.Fatalf("stats = %+v", statsResp.Data)
	}
}

func TestUpdateCaseNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPatch, "/cases/nope", map[string]any{"notes": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestVideoCallEndpointsDriveCaseLifecycle(t *testing.T) {
	r, store := newTestRouter(t)

	cs := store.AddCase(demo.Case{PetName: "Rex", Status: demo.StatusWaiting, TriageLevel: demo.TriageRed})

	w := doJSON(t, r, http.MethodPost, "/cases/"+cs.ID+"/video-call", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}
	var startResp struct {
		Data demo.VideoCall `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &startResp); err != nil {
		t.Fatalf("decode call: %v", err)
	}
	call := startResp.Data
	if len(call.Participants) != 1 || call.Participants[0] != "vet-1" {
		t.Fatalf("participants = %v, want the authenticated clinician", call.Participants)
	}

	got, _ := store.GetCase(cs.ID)
	if got.Status != demo.StatusInConsultation {
		t.Fatalf("case status = %q, want in_consultation", got.Status)
	}

	// Starting again joins the existing call instead of stacking a second.
	w = doJSON(t, r, http.MethodPost, "/cases/"+cs.ID+"/video-call", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second start status = %d, want 200", w.Code)
	}
	if n := len(store.VideoCalls()); n != 1 {
		t.Fatalf("store has %d calls, want 1", n)
	}

	w = doJSON(t, r, http.MethodPost, "/video-calls/"+call.ID+"/join", map[string]any{"participantId": "owner-55"})
	if w.Code != http.StatusOK {
		t.Fatalf("join status = %d, want 200", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/video-calls/"+call.ID+"/end", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end status = %d, want 200", w.Code)
	}

	got, _ = store.GetCase(cs.ID)
	if got.Status != demo.StatusCompleted {
		t.Fatalf("case status = %q, want completed", got.Status)
	}
	endedCall, ok := store.GetVideoCall(call.ID)
	if !ok || endedCall.IsActive {
		t.Fatalf("ended call = %+v ok=%v, want retained and inactive", endedCall, ok)
	}
	if len(endedCall.Participants) != 2 {
		t.Fatalf("participants = %v, want clinician and owner", endedCall.Participants)
	}
}

func TestUploadAttachmentWithoutStorageConfigured(t *testing.T) {
	r, store := newTestRouter(t)

	caseHandler := NewCaseHandler(store, nil, nil)
	r.POST("/cases/:id/files", caseHandler.UploadAttachment)

	cs := store.AddCase(demo.Case{PetName: "Rex", Status: demo.StatusWaiting})

	req := httptest.NewRequest(http.MethodPost, "/cases/"+cs.ID+"/files", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when storage is not configured", w.Code)
	}
}
