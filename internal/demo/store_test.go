package demo

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"vet-telehealth-server/internal/bus"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func emptySeed(time.Time) Seed { return Seed{} }

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithSeed(emptySeed), WithTickInterval(time.Hour)}, opts...)
	s := NewStore(nil, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestAddOwnerAssignsIdentityAndDisplayName(t *testing.T) {
	s := newTestStore(t)

	a := s.AddOwner(Owner{FirstName: "A", LastName: "B", Phone: "555-0100"})
	if a.Name != "A B" {
		t.Fatalf("Name = %q, want %q", a.Name, "A B")
	}
	if a.ID == "" {
		t.Fatal("ID is empty")
	}
	if !strings.HasPrefix(a.ID, "owner-") {
		t.Fatalf("ID = %q, want owner- prefix", a.ID)
	}

	b := s.AddOwner(Owner{FirstName: "A", LastName: "B", Phone: "555-0100"})
	if a.ID == b.ID {
		t.Fatalf("two owners share id %q", a.ID)
	}
	if got := len(s.Owners()); got != 2 {
		t.Fatalf("len(Owners) = %d, want 2 (duplicates allowed)", got)
	}
}

func TestAddCaseDefaults(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting, TriageLevel: TriageYellow, WaitTime: 99})
	if c.Status != StatusWaiting {
		t.Fatalf("Status = %q, want caller-provided waiting", c.Status)
	}
	if c.WaitTime != 0 {
		t.Fatalf("WaitTime = %d, want 0", c.WaitTime)
	}
	if !c.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("CreatedAt = %v, want %v", c.CreatedAt, clock.Now())
	}
}

func TestUpdateCaseUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})

	notes := "x"
	s.UpdateCase("does-not-exist", CasePatch{Notes: &notes})

	got, ok := s.GetCase(c.ID)
	if !ok {
		t.Fatal("existing case disappeared")
	}
	if got.Notes != "" {
		t.Fatalf("Notes = %q, want unchanged", got.Notes)
	}
	if n := len(s.Cases()); n != 1 {
		t.Fatalf("len(Cases) = %d, want 1", n)
	}
}

func TestAssignCaseAdvancesToReady(t *testing.T) {
	s := newTestStore(t)
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})

	s.AssignCase(c.ID, "vet-1", "Dr. X")

	got, _ := s.GetCase(c.ID)
	if got.Status != StatusReady {
		t.Fatalf("Status = %q, want ready", got.Status)
	}
	if got.AssignedVetID != "vet-1" || got.AssignedVetName != "Dr. X" {
		t.Fatalf("assignment = %q/%q, want vet-1/Dr. X", got.AssignedVetID, got.AssignedVetName)
	}
}

func TestAssignCompletedCaseKeepsStatus(t *testing.T) {
	s := newTestStore(t)
	c := s.AddCase(Case{PetName: "Rex", Status: StatusCompleted})

	s.AssignCase(c.ID, "vet-1", "Dr. X")

	got, _ := s.GetCase(c.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed (no backward transition)", got.Status)
	}
	if got.AssignedVetID != "vet-1" {
		t.Fatalf("AssignedVetID = %q, clinician fields should still update", got.AssignedVetID)
	}
}

func TestVideoCallLifecycleDrivesCaseStatus(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})

	call := s.StartVideoCall(c.ID, "vet-1")
	got, _ := s.GetCase(c.ID)
	if got.Status != StatusInConsultation {
		t.Fatalf("Status = %q, want in_consultation", got.Status)
	}
	if got.ConsultationStartTime == nil || !got.ConsultationStartTime.Equal(clock.Now()) {
		t.Fatalf("ConsultationStartTime = %v, want %v", got.ConsultationStartTime, clock.Now())
	}
	if len(call.Participants) != 1 || call.Participants[0] != "vet-1" {
		t.Fatalf("Participants = %v, want [vet-1]", call.Participants)
	}

	clock.Advance(10 * time.Minute)
	s.EndVideoCall(call.ID)

	got, _ = s.GetCase(c.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	if got.ConsultationEndTime == nil || !got.ConsultationEndTime.Equal(clock.Now()) {
		t.Fatalf("ConsultationEndTime = %v, want %v", got.ConsultationEndTime, clock.Now())
	}

	ended, ok := s.GetVideoCall(call.ID)
	if !ok {
		t.Fatal("ended call removed from collection, want it retained")
	}
	if ended.IsActive {
		t.Fatal("IsActive = true after end, want false")
	}
}

func TestJoinVideoCallIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})
	call := s.StartVideoCall(c.ID, "vet-1")

	s.JoinVideoCall(call.ID, "userA")
	s.JoinVideoCall(call.ID, "userA")

	got, _ := s.GetVideoCall(call.ID)
	count := 0
	for _, p := range got.Participants {
		if p == "userA" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("userA appears %d times, want 1 (participants %v)", count, got.Participants)
	}
}

func TestScreenShareSingleHolder(t *testing.T) {
	s := newTestStore(t)
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})
	call := s.StartVideoCall(c.ID, "vet-1")

	s.SetScreenShare(call.ID, "vet-1", true)
	s.SetScreenShare(call.ID, "userA", true)

	got, _ := s.GetVideoCall(call.ID)
	if got.ScreenShare == nil || got.ScreenShare.HolderID != "userA" || !got.ScreenShare.Active {
		t.Fatalf("ScreenShare = %+v, want active holder userA", got.ScreenShare)
	}

	s.SetScreenShare(call.ID, "userA", false)
	got, _ = s.GetVideoCall(call.ID)
	if got.ScreenShare.Active {
		t.Fatal("ScreenShare still active after stop")
	}
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	s := newTestStore(t)

	var order []string
	s.Subscribe(func(Event) { order = append(order, "first") })
	s.Subscribe(func(Event) { order = append(order, "second") })

	s.AddOwner(Owner{FirstName: "A", LastName: "B"})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("callback order = %v, want [first second]", order)
	}
}

func TestUnsubscribeDuringCallback(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	var unsub func()
	unsub = s.Subscribe(func(Event) {
		calls++
		unsub()
	})
	var secondSaw int
	s.Subscribe(func(Event) { secondSaw++ })

	s.AddOwner(Owner{FirstName: "A", LastName: "B"})
	s.AddOwner(Owner{FirstName: "C", LastName: "D"})

	if calls != 1 {
		t.Fatalf("unsubscribed callback ran %d times, want 1", calls)
	}
	if secondSaw != 2 {
		t.Fatalf("second callback ran %d times, want 2", secondSaw)
	}
}

func TestBroadcastRoundTripBetweenStores(t *testing.T) {
	shared := bus.NewMemoryBus()
	defer shared.Close()

	a := NewStore(shared, WithSeed(emptySeed), WithTickInterval(time.Hour))
	defer a.Close()
	b := NewStore(shared, WithSeed(emptySeed), WithTickInterval(time.Hour))
	defer b.Close()

	var bSaw []EventType
	b.Subscribe(func(ev Event) { bSaw = append(bSaw, ev.Type) })

	c := a.AddCase(Case{PetName: "Rex", Status: StatusWaiting, TriageLevel: TriageRed})

	remote, ok := b.GetCase(c.ID)
	if !ok {
		t.Fatal("case did not replicate to second store")
	}
	if remote.PetName != "Rex" || remote.TriageLevel != TriageRed {
		t.Fatalf("replicated case = %+v", remote)
	}
	if !remote.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("CreatedAt = %v after transit, want %v", remote.CreatedAt, c.CreatedAt)
	}
	if len(bSaw) != 1 || bSaw[0] != EventCaseAdded {
		t.Fatalf("second store events = %v, want [case_added]", bSaw)
	}

	// Sender must not re-apply its own broadcast.
	if n := len(a.Cases()); n != 1 {
		t.Fatalf("origin store has %d cases, want 1", n)
	}
}

func TestInboundSerializedDatesAreReconstituted(t *testing.T) {
	shared := bus.NewMemoryBus()
	defer shared.Close()

	s := NewStore(shared, WithSeed(emptySeed), WithTickInterval(time.Hour))
	defer s.Close()

	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})

	want, _ := time.Parse(time.RFC3339, "2026-03-04T09:30:00Z")
	payload, _ := json.Marshal(map[string]any{
		"id": c.ID,
		"updates": map[string]any{
			"status":                "in_consultation",
			"consultationStartTime": "2026-03-04T09:30:00Z",
		},
	})
	shared.Publish(bus.Message{Origin: "another-instance", Type: "case_updated", Payload: payload})

	got, _ := s.GetCase(c.ID)
	if got.Status != StatusInConsultation {
		t.Fatalf("Status = %q, want in_consultation", got.Status)
	}
	if got.ConsultationStartTime == nil || !got.ConsultationStartTime.Equal(want) {
		t.Fatalf("ConsultationStartTime = %v, want %v", got.ConsultationStartTime, want)
	}
}

func TestMalformedAndUnknownInboundEventsAreDropped(t *testing.T) {
	shared := bus.NewMemoryBus()
	defer shared.Close()

	s := NewStore(shared, WithSeed(emptySeed), WithTickInterval(time.Hour))
	defer s.Close()
	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})

	shared.Publish(bus.Message{Origin: "x", Type: "case_exploded", Payload: []byte(`{}`)})
	shared.Publish(bus.Message{Origin: "x", Type: "case_updated", Payload: []byte(`not json`)})

	got, ok := s.GetCase(c.ID)
	if !ok || got.Status != StatusWaiting {
		t.Fatalf("state disturbed by dropped events: %+v ok=%v", got, ok)
	}
}

func TestResetRestoresSeedAndBroadcasts(t *testing.T) {
	shared := bus.NewMemoryBus()
	defer shared.Close()

	seeded := func(now time.Time) Seed {
		return Seed{Cases: []Case{{ID: "case-seed", PetName: "Seeded", Status: StatusWaiting, CreatedAt: now}}}
	}
	a := NewStore(shared, WithSeed(seeded), WithTickInterval(time.Hour))
	defer a.Close()

	reloaded := false
	b := NewStore(shared, WithSeed(seeded), WithTickInterval(time.Hour), WithReload(func() { reloaded = true }))
	defer b.Close()

	a.AddCase(Case{PetName: "Extra", Status: StatusWaiting})
	if n := len(a.Cases()); n != 2 {
		t.Fatalf("pre-reset cases = %d, want 2", n)
	}

	a.Reset()

	cases := a.Cases()
	if len(cases) != 1 || cases[0].ID != "case-seed" {
		t.Fatalf("post-reset cases = %+v, want only the seed case", cases)
	}
	if len(a.VideoCalls()) != 0 {
		t.Fatal("video calls survived reset")
	}
	if !reloaded {
		t.Fatal("remote instance did not run its reload hook")
	}
}

func TestUpdatePatientMergesOnlyProvidedFields(t *testing.T) {
	s := newTestStore(t)
	p := s.AddPatient(Patient{Name: "Rex", Species: SpeciesDog, Breed: "Beagle", Age: 4})

	age := 5
	s.UpdatePatient(p.ID, PatientPatch{Age: &age, Allergies: []string{"Pollen"}})

	got, _ := s.GetPatient(p.ID)
	if got.Age != 5 {
		t.Fatalf("Age = %d, want 5", got.Age)
	}
	if got.Breed != "Beagle" || got.Name != "Rex" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if len(got.Allergies) != 1 || got.Allergies[0] != "Pollen" {
		t.Fatalf("Allergies = %v", got.Allergies)
	}
}

func TestWaitTimeRefreshSkipsClosedCases(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	waiting := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})
	done := s.AddCase(Case{PetName: "Mia", Status: StatusCompleted})

	clock.Advance(30 * time.Minute)
	s.refreshWaitTimes()

	got, _ := s.GetCase(waiting.ID)
	if got.WaitTime != 30 {
		t.Fatalf("waiting WaitTime = %d, want 30", got.WaitTime)
	}
	gotDone, _ := s.GetCase(done.ID)
	if gotDone.WaitTime != 0 {
		t.Fatalf("completed WaitTime = %d, want frozen at 0", gotDone.WaitTime)
	}
}

func TestTickerRefreshesWaitTimes(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := NewStore(nil, WithSeed(emptySeed), WithClock(clock.Now), WithTickInterval(5*time.Millisecond))
	defer s.Close()

	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})
	clock.Advance(42 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if got, _ := s.GetCase(c.ID); got.WaitTime == 42 {
			break
		}
		if time.Now().After(deadline) {
			got, _ := s.GetCase(c.ID)
			t.Fatalf("WaitTime = %d, want 42 before deadline", got.WaitTime)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCloseStopsTickerAndBus(t *testing.T) {
	shared := bus.NewMemoryBus()
	defer shared.Close()
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := NewStore(shared, WithSeed(emptySeed), WithClock(clock.Now), WithTickInterval(5*time.Millisecond))

	c := s.AddCase(Case{PetName: "Rex", Status: StatusWaiting})
	s.Close()
	s.Close() // idempotent

	clock.Advance(time.Hour)
	time.Sleep(30 * time.Millisecond)
	if got, _ := s.GetCase(c.ID); got.WaitTime != 0 {
		t.Fatalf("WaitTime = %d after Close, want 0", got.WaitTime)
	}

	shared.Publish(bus.Message{Origin: "x", Type: "case_updated", Payload: []byte(`{"id":"` + c.ID + `","updates":{"notes":"late"}}`)})
	if got, _ := s.GetCase(c.ID); got.Notes != "" {
		t.Fatal("store still applying bus events after Close")
	}
}

func TestOpenCasesByTriageOrdering(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	s := newTestStore(t, WithClock(clock.Now))

	green := s.AddCase(Case{PetName: "G", Status: StatusWaiting, TriageLevel: TriageGreen})
	clock.Advance(time.Minute)
	redOld := s.AddCase(Case{PetName: "R1", Status: StatusWaiting, TriageLevel: TriageRed})
	clock.Advance(time.Minute)
	redNew := s.AddCase(Case{PetName: "R2", Status: StatusWaiting, TriageLevel: TriageRed})
	clock.Advance(time.Minute)
	s.AddCase(Case{PetName: "Done", Status: StatusCompleted, TriageLevel: TriageRed})

	got := s.OpenCasesByTriage()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (completed excluded)", len(got))
	}
	if got[0].ID != redOld.ID || got[1].ID != redNew.ID || got[2].ID != green.ID {
		t.Fatalf("order = %s %s %s, want red-old red-new green", got[0].PetName, got[1].PetName, got[2].PetName)
	}
}
