package demo

import (
	"encoding/json"
	"fmt"
	"time"

	"vet-telehealth-server/internal/bus"
)

// EventType identifies a store mutation. The names are the wire schema of
// the broadcast channel and are shared by every server instance.
type EventType string

const (
	EventOwnerAdded       EventType = "owner_added"
	EventPatientAdded     EventType = "patient_added"
	EventPatientUpdated   EventType = "patient_updated"
	EventCaseAdded        EventType = "case_added"
	EventCaseUpdated      EventType = "case_updated"
	EventVideoCallStarted EventType = "video_call_started"
	EventVideoCallUpdated EventType = "video_call_updated"
	EventVideoCallEnded   EventType = "video_call_ended"
	EventDemoReset        EventType = "demo_reset"
)

// Event is a single store mutation, local or remote in origin. Payload holds
// the concrete type for the event: the created entity for added/started
// events, an *Update struct for updated events, VideoCallEnded for ended,
// and nil for demo_reset.
type Event struct {
	Type    EventType
	Payload any
}

// PatientPatch is a partial patient update. Nil fields are left unchanged.
type PatientPatch struct {
	Name           *string  `json:"name,omitempty"`
	Breed          *string  `json:"breed,omitempty"`
	Age            *int     `json:"age,omitempty"`
	Weight         *float64 `json:"weight,omitempty"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Medications    []string `json:"medications,omitempty"`
	PhotoURL       *string  `json:"photoUrl,omitempty"`
	MicrochipID    *string  `json:"microchipId,omitempty"`
}

// CasePatch is a partial case update. Nil fields are left unchanged.
type CasePatch struct {
	TriageLevel           *TriageLevel `json:"triageLevel,omitempty"`
	Status                *CaseStatus  `json:"status,omitempty"`
	ChiefComplaint        *string      `json:"chiefComplaint,omitempty"`
	Vitals                *Vitals      `json:"vitals,omitempty"`
	WaitTime              *int         `json:"waitTime,omitempty"`
	AssignedVetID         *string      `json:"assignedVetId,omitempty"`
	AssignedVetName       *string      `json:"assignedVetName,omitempty"`
	Files                 []CaseFile   `json:"files,omitempty"`
	Notes                 *string      `json:"notes,omitempty"`
	TreatmentPlan         *string      `json:"treatmentPlan,omitempty"`
	ConsultationStartTime *time.Time   `json:"consultationStartTime,omitempty"`
	ConsultationEndTime   *time.Time   `json:"consultationEndTime,omitempty"`
}

// VideoCallPatch is a partial video-call update. Nil fields are left
// unchanged.
type VideoCallPatch struct {
	Participants []string     `json:"participants,omitempty"`
	IsActive     *bool        `json:"isActive,omitempty"`
	ScreenShare  *ScreenShare `json:"screenShare,omitempty"`
}

// PatientUpdate is the payload of patient_updated.
type PatientUpdate struct {
	ID      string       `json:"id"`
	Updates PatientPatch `json:"updates"`
}

// CaseUpdate is the payload of case_updated.
type CaseUpdate struct {
	ID      string    `json:"id"`
	Updates CasePatch `json:"updates"`
}

// VideoCallUpdate is the payload of video_call_updated.
type VideoCallUpdate struct {
	ID      string         `json:"id"`
	Updates VideoCallPatch `json:"updates"`
}

// VideoCallEnded is the payload of video_call_ended.
type VideoCallEnded struct {
	ID string `json:"id"`
}

// encodeEvent wraps an event in the wire envelope. Marshalling here is the
// single serialization boundary: every time.Time field becomes RFC 3339 text
// and is reconstituted on decode, so apply logic never parses dates.
func encodeEvent(origin string, ev Event) (bus.Message, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return bus.Message{}, fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return bus.Message{
		Origin:  origin,
		Type:    string(ev.Type),
		Payload: payload,
	}, nil
}

// decodeEvent reconstructs a typed event from the wire envelope. Unknown
// event types and malformed payloads yield an error; callers drop them.
func decodeEvent(msg bus.Message) (Event, error) {
	unmarshal := func(v any) (Event, error) {
		if err := json.Unmarshal(msg.Payload, v); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return Event{Type: EventType(msg.Type), Payload: deref(v)}, nil
	}

	switch EventType(msg.Type) {
	case EventOwnerAdded:
		return unmarshal(&Owner{})
	case EventPatientAdded:
		return unmarshal(&Patient{})
	case EventPatientUpdated:
		return unmarshal(&PatientUpdate{})
	case EventCaseAdded:
		return unmarshal(&Case{})
	case EventCaseUpdated:
		return unmarshal(&CaseUpdate{})
	case EventVideoCallStarted:
		return unmarshal(&VideoCall{})
	case EventVideoCallUpdated:
		return unmarshal(&VideoCallUpdate{})
	case EventVideoCallEnded:
		return unmarshal(&VideoCallEnded{})
	case EventDemoReset:
		return Event{Type: EventDemoReset}, nil
	default:
		return Event{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
}

func deref(v any) any {
	switch p := v.(type) {
	case *Owner:
		return *p
	case *Patient:
		return *p
	case *PatientUpdate:
		return *p
	case *Case:
		return *p
	case *CaseUpdate:
		return *p
	case *VideoCall:
		return *p
	case *VideoCallUpdate:
		return *p
	case *VideoCallEnded:
		return *p
	default:
		return v
	}
}
