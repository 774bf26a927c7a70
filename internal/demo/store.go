// Package demo holds the live in-memory state behind the triage queue,
// case-detail, and video-consultation screens. Each server instance owns its
// own copy of the four entity collections; instances converge by exchanging
// typed events over a broadcast bus. There is no durable persistence and no
// conflict resolution: concurrent updates to the same record are
// last-write-wins at each instance.
package demo

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vet-telehealth-server/internal/bus"
)

// DefaultTickInterval is how often open cases' wait times are recomputed.
const DefaultTickInterval = 30 * time.Second

// Store holds the owner, patient, case, and video-call collections and is
// the single mutation path for all of them. Every mutation is applied
// locally, broadcast to other instances, and fanned out to subscribers, in
// that order, so local and remote observers see the same event shapes.
type Store struct {
	mu       sync.RWMutex
	owners   []Owner
	patients []Patient
	cases    []Case
	calls    []VideoCall

	bus      bus.Bus
	busUnsub func()
	origin   string

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	now    func() time.Time
	seed   func(now time.Time) Seed
	reload func()

	tick      time.Duration
	stopTick  chan struct{}
	closeOnce sync.Once
}

type subscriber struct {
	id int
	fn func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTickInterval overrides the wait-time refresh period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Store) { s.tick = d }
}

// WithSeed overrides the fixture data loaded at construction and on reset.
func WithSeed(seed func(now time.Time) Seed) Option {
	return func(s *Store) { s.seed = seed }
}

// WithReload sets the hook invoked when another instance broadcasts
// demo_reset. The default reseeds the collections in place.
func WithReload(fn func()) Option {
	return func(s *Store) { s.reload = fn }
}

// NewStore builds a store seeded from fixtures, wires it to the given bus
// (nil is allowed and degrades to local-only operation), and starts the
// wait-time ticker. Call Close to release the timer and bus subscription.
func NewStore(b bus.Bus, opts ...Option) *Store {
	s := &Store{
		bus:      b,
		origin:   uuid.NewString(),
		now:      time.Now,
		seed:     DefaultSeed,
		tick:     DefaultTickInterval,
		stopTick: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reload == nil {
		s.reload = s.reseed
	}

	s.reseed()

	if s.bus != nil {
		s.busUnsub = s.bus.Subscribe(s.onBusMessage)
	}
	go s.runTicker()

	return s
}

// Close stops the wait-time ticker and detaches from the bus. It is safe to
// call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stopTick)
		if s.busUnsub != nil {
			s.busUnsub()
		}
	})
}

// Subscribe registers a callback invoked for every event the store applies,
// whether it originated locally or on another instance. Callbacks run in
// registration order. The returned function removes the subscription and may
// be called during a callback without disturbing the rest of the fan-out.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// notify fans an event out to a snapshot of the current subscribers, so a
// callback that unsubscribes (itself or others) cannot skip or break the
// iteration.
func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	snapshot := make([]subscriber, len(s.subs))
	copy(snapshot, s.subs)
	s.subMu.Unlock()

	for _, sub := range snapshot {
		sub.fn(ev)
	}
}

// publish is the single path every local mutation takes: apply to local
// state, relay to other instances, then fan out to subscribers. The bus leg
// is fire-and-forget and absent transport is not an error.
func (s *Store) publish(ev Event) {
	s.apply(ev)
	if s.bus != nil {
		if msg, err := encodeEvent(s.origin, ev); err == nil {
			_ = s.bus.Publish(msg)
		}
	}
	s.notify(ev)
}

// onBusMessage handles events from other instances. They run through the
// same apply dispatch as local events, so origin is indistinguishable to
// subscribers. demo_reset is the exception: remote resets go through the
// reload hook because this instance's seed clock, not the sender's payload,
// defines the restored state.
func (s *Store) onBusMessage(msg bus.Message) {
	if msg.Origin == s.origin {
		return
	}
	ev, err := decodeEvent(msg)
	if err != nil {
		// Malformed or unrecognized events are dropped without effect.
		return
	}
	if ev.Type == EventDemoReset {
		s.reload()
	} else {
		s.apply(ev)
	}
	s.notify(ev)
}

// apply mutates local state for one event. This is the only place collection
// contents change, keeping exactly one application code path for local and
// remote events.
func (s *Store) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p := ev.Payload.(type) {
	case Owner:
		s.owners = append(s.owners, p)
	case Patient:
		s.patients = append(s.patients, p)
	case PatientUpdate:
		s.mergePatient(p.ID, p.Updates)
	case Case:
		s.cases = append(s.cases, p)
	case CaseUpdate:
		s.mergeCase(p.ID, p.Updates)
	case VideoCall:
		s.calls = append(s.calls, p)
	case VideoCallUpdate:
		s.mergeCall(p.ID, p.Updates)
	case VideoCallEnded:
		for i := range s.calls {
			if s.calls[i].ID == p.ID {
				s.calls[i].IsActive = false
			}
		}
	default:
		if ev.Type == EventDemoReset {
			s.resetLocked()
		}
	}
}

// AddOwner creates an owner with a generated id and computed display name,
// appends it, and broadcasts owner_added. No uniqueness check is made
// against phone or email.
func (s *Store) AddOwner(o Owner) Owner {
	o.ID = newID("owner")
	o.Name = o.FirstName + " " + o.LastName
	o.CreatedAt = s.now()
	s.publish(Event{Type: EventOwnerAdded, Payload: o})
	return o
}

// AddPatient creates a patient with a generated id, appends it, and
// broadcasts patient_added.
func (s *Store) AddPatient(p Patient) Patient {
	p.ID = newID("patient")
	s.publish(Event{Type: EventPatientAdded, Payload: p})
	return p
}

// UpdatePatient merges a partial update into the patient with the given id
// and broadcasts patient_updated. An unknown id is a silent no-op.
func (s *Store) UpdatePatient(id string, patch PatientPatch) {
	s.publish(Event{Type: EventPatientUpdated, Payload: PatientUpdate{ID: id, Updates: patch}})
}

// GetPatient returns the patient with the given id.
func (s *Store) GetPatient(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// AddCase creates a case with a generated id, CreatedAt stamped now, and a
// zero wait time, appends it, and broadcasts case_added. Status is taken
// from the caller as provided.
func (s *Store) AddCase(c Case) Case {
	c.ID = newID("case")
	c.CreatedAt = s.now()
	c.WaitTime = 0
	s.publish(Event{Type: EventCaseAdded, Payload: c})
	return c
}

// UpdateCase merges a partial update into the case with the given id and
// broadcasts case_updated. An unknown id is a silent no-op. The merge is
// blind last-write-wins; callers that need confirmation re-fetch by id.
func (s *Store) UpdateCase(id string, patch CasePatch) {
	s.publish(Event{Type: EventCaseUpdated, Payload: CaseUpdate{ID: id, Updates: patch}})
}

// GetCase returns the case with the given id.
func (s *Store) GetCase(id string) (Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.ID == id {
			return c, true
		}
	}
	return Case{}, false
}

// AssignCase records the clinician on a case and advances it to ready. This
// is the only sanctioned transition helper outside the video-call lifecycle.
// If the case has already moved past ready, the clinician fields still
// update but the status is left alone.
func (s *Store) AssignCase(caseID, vetID, vetName string) {
	patch := CasePatch{
		AssignedVetID:   &vetID,
		AssignedVetName: &vetName,
	}
	if c, ok := s.GetCase(caseID); ok {
		if c.Status.CanAdvanceTo(StatusReady) {
			ready := StatusReady
			patch.Status = &ready
		}
	}
	s.UpdateCase(caseID, patch)
}

// StartVideoCall opens a consultation session for a case with the starting
// clinician as the first participant, then advances the case to
// in_consultation stamping its consultation start time.
func (s *Store) StartVideoCall(caseID, starterID string) VideoCall {
	call := VideoCall{
		ID:           newID("call"),
		CaseID:       caseID,
		Participants: []string{starterID},
		IsActive:     true,
		StartedAt:    s.now(),
	}
	s.publish(Event{Type: EventVideoCallStarted, Payload: call})

	if c, ok := s.GetCase(caseID); ok && c.Status.CanAdvanceTo(StatusInConsultation) {
		status := StatusInConsultation
		start := call.StartedAt
		s.UpdateCase(caseID, CasePatch{Status: &status, ConsultationStartTime: &start})
	}
	return call
}

// JoinVideoCall appends a participant to a call. Joining twice with the same
// identifier leaves the participant list unchanged.
func (s *Store) JoinVideoCall(callID, participantID string) {
	call, ok := s.GetVideoCall(callID)
	if !ok {
		return
	}
	for _, p := range call.Participants {
		if p == participantID {
			return
		}
	}
	participants := append(append([]string(nil), call.Participants...), participantID)
	s.publish(Event{Type: EventVideoCallUpdated, Payload: VideoCallUpdate{
		ID:      callID,
		Updates: VideoCallPatch{Participants: participants},
	}})
}

// SetScreenShare records who is sharing their screen on a call. At most one
// sharer is modeled; setting a new holder replaces the previous one.
func (s *Store) SetScreenShare(callID, holderID string, active bool) {
	s.publish(Event{Type: EventVideoCallUpdated, Payload: VideoCallUpdate{
		ID:      callID,
		Updates: VideoCallPatch{ScreenShare: &ScreenShare{HolderID: holderID, Active: active}},
	}})
}

// EndVideoCall deactivates a call and completes its case, stamping the
// consultation end time. The call record stays in the collection.
func (s *Store) EndVideoCall(callID string) {
	call, ok := s.GetVideoCall(callID)
	if !ok {
		return
	}
	s.publish(Event{Type: EventVideoCallEnded, Payload: VideoCallEnded{ID: callID}})

	if c, ok := s.GetCase(call.CaseID); ok && c.Status.CanAdvanceTo(StatusCompleted) {
		status := StatusCompleted
		end := s.now()
		s.UpdateCase(call.CaseID, CasePatch{Status: &status, ConsultationEndTime: &end})
	}
}

// GetVideoCall returns the call with the given id.
func (s *Store) GetVideoCall(id string) (VideoCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.calls {
		if c.ID == id {
			return c, true
		}
	}
	return VideoCall{}, false
}

// ActiveVideoCallForCase returns the most recent active call for a case.
func (s *Store) ActiveVideoCallForCase(caseID string) (VideoCall, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].CaseID == caseID && s.calls[i].IsActive {
			return s.calls[i], true
		}
	}
	return VideoCall{}, false
}

// Reset restores the four collections to their seed-fixture state and
// broadcasts demo_reset so other instances reload as well.
func (s *Store) Reset() {
	s.publish(Event{Type: EventDemoReset})
}

func (s *Store) reseed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	seed := s.seed(s.now())
	s.owners = append([]Owner(nil), seed.Owners...)
	s.patients = append([]Patient(nil), seed.Patients...)
	s.cases = append([]Case(nil), seed.Cases...)
	s.calls = nil
}

// Owners returns a copy of the owner collection in insertion order.
func (s *Store) Owners() []Owner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Owner(nil), s.owners...)
}

// Patients returns a copy of the patient collection in insertion order.
func (s *Store) Patients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Patient(nil), s.patients...)
}

// Cases returns a copy of the case collection in insertion order.
func (s *Store) Cases() []Case {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Case(nil), s.cases...)
}

// OpenCasesByTriage returns non-completed cases ordered red before yellow
// before green, ties broken by age (oldest first). This is the queue-screen
// ordering.
func (s *Store) OpenCasesByTriage() []Case {
	s.mu.RLock()
	open := make([]Case, 0, len(s.cases))
	for _, c := range s.cases {
		if c.Status != StatusCompleted {
			open = append(open, c)
		}
	}
	s.mu.RUnlock()

	rank := map[TriageLevel]int{TriageRed: 0, TriageYellow: 1, TriageGreen: 2}
	sort.SliceStable(open, func(i, j int) bool {
		if rank[open[i].TriageLevel] != rank[open[j].TriageLevel] {
			return rank[open[i].TriageLevel] < rank[open[j].TriageLevel]
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open
}

// VideoCalls returns a copy of the video-call collection in insertion order,
// ended calls included.
func (s *Store) VideoCalls() []VideoCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]VideoCall(nil), s.calls...)
}

func (s *Store) runTicker() {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.refreshWaitTimes()
		case <-s.stopTick:
			return
		}
	}
}

// refreshWaitTimes recomputes the cached wait time for every waiting or
// ready case. Cases in later states keep their last value.
func (s *Store) refreshWaitTimes() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cases {
		switch s.cases[i].Status {
		case StatusWaiting, StatusReady:
			s.cases[i].WaitTime = waitMinutes(s.cases[i], now)
		}
	}
}

// mergePatient applies non-nil patch fields to the patient with the given
// id. Zero matches means the update is dropped.
func (s *Store) mergePatient(id string, patch PatientPatch) {
	for i := range s.patients {
		if s.patients[i].ID != id {
			continue
		}
		p := &s.patients[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Breed != nil {
			p.Breed = *patch.Breed
		}
		if patch.Age != nil {
			p.Age = *patch.Age
		}
		if patch.Weight != nil {
			p.Weight = *patch.Weight
		}
		if patch.MedicalHistory != nil {
			p.MedicalHistory = patch.MedicalHistory
		}
		if patch.Allergies != nil {
			p.Allergies = patch.Allergies
		}
		if patch.Medications != nil {
			p.Medications = patch.Medications
		}
		if patch.PhotoURL != nil {
			p.PhotoURL = *patch.PhotoURL
		}
		if patch.MicrochipID != nil {
			p.MicrochipID = *patch.MicrochipID
		}
	}
}

func (s *Store) mergeCase(id string, patch CasePatch) {
	for i := range s.cases {
		if s.cases[i].ID != id {
			continue
		}
		c := &s.cases[i]
		if patch.TriageLevel != nil {
			c.TriageLevel = *patch.TriageLevel
		}
		if patch.Status != nil {
			c.Status = *patch.Status
		}
		if patch.ChiefComplaint != nil {
			c.ChiefComplaint = *patch.ChiefComplaint
		}
		if patch.Vitals != nil {
			c.Vitals = *patch.Vitals
		}
		if patch.WaitTime != nil {
			c.WaitTime = *patch.WaitTime
		}
		if patch.AssignedVetID != nil {
			c.AssignedVetID = *patch.AssignedVetID
		}
		if patch.AssignedVetName != nil {
			c.AssignedVetName = *patch.AssignedVetName
		}
		if patch.Files != nil {
			c.Files = patch.Files
		}
		if patch.Notes != nil {
			c.Notes = *patch.Notes
		}
		if patch.TreatmentPlan != nil {
			c.TreatmentPlan = *patch.TreatmentPlan
		}
		if patch.ConsultationStartTime != nil {
			c.ConsultationStartTime = patch.ConsultationStartTime
		}
		if patch.ConsultationEndTime != nil {
			c.ConsultationEndTime = patch.ConsultationEndTime
		}
	}
}

func (s *Store) mergeCall(id string, patch VideoCallPatch) {
	for i := range s.calls {
		if s.calls[i].ID != id {
			continue
		}
		c := &s.calls[i]
		if patch.Participants != nil {
			c.Participants = dedupe(patch.Participants)
		}
		if patch.IsActive != nil {
			c.IsActive = *patch.IsActive
		}
		if patch.ScreenShare != nil {
			c.ScreenShare = patch.ScreenShare
		}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
