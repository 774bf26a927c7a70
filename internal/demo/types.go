package demo

import (
	"time"
)

// Species enumerates the animals the clinic triages.
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

// TriageLevel represents the clinical urgency of a case.
// Red is most urgent, green least.
type TriageLevel string

const (
	TriageRed    TriageLevel = "red"
	TriageYellow TriageLevel = "yellow"
	TriageGreen  TriageLevel = "green"
)

// CaseStatus represents where a case sits in the consultation workflow.
type CaseStatus string

const (
	StatusWaiting        CaseStatus = "waiting"
	StatusReady          CaseStatus = "ready"
	StatusInConsultation CaseStatus = "in_consultation"
	StatusCompleted      CaseStatus = "completed"
)

// statusRank orders the workflow states. Transitions only move forward.
var statusRank = map[CaseStatus]int{
	StatusWaiting:        0,
	StatusReady:          1,
	StatusInConsultation: 2,
	StatusCompleted:      3,
}

// CanAdvanceTo reports whether moving from s to next is a legal forward
// transition. Skipping states is allowed (a call can start on a case that
// was never assigned); moving backward or staying put is not.
func (s CaseStatus) CanAdvanceTo(next CaseStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Owner represents a pet guardian. Identity is immutable once created;
// duplicates by phone or email are allowed.
type Owner struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	AltPhone         string    `json:"altPhone,omitempty"`
	Address          string    `json:"address,omitempty"`
	EmergencyContact string    `json:"emergencyContact,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Patient represents an animal under care.
type Patient struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Species        Species  `json:"species"`
	Breed          string   `json:"breed,omitempty"`
	Age            int      `json:"age"`
	Weight         float64  `json:"weight"`
	OwnerID        string   `json:"ownerId"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Medications    []string `json:"medications,omitempty"`
	PhotoURL       string   `json:"photoUrl,omitempty"`
	MicrochipID    string   `json:"microchipId,omitempty"`
}

// Vitals is the snapshot captured at intake.
type Vitals struct {
	Temperature         float64 `json:"temperature"`
	HeartRate           int     `json:"heartRate"`
	RespiratoryRate     int     `json:"respiratoryRate"`
	Weight              float64 `json:"weight"`
	MucousMembraneColor string  `json:"mucousMembraneColor"`
	CapillaryRefillTime string  `json:"capillaryRefillTime"`
	PainScale           *int    `json:"painScale,omitempty"`
	BloodPressure       string  `json:"bloodPressure,omitempty"`
}

// CaseFile describes a file attached to a case. The bytes themselves live
// in object storage under StorageKey.
type CaseFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storageKey"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Case represents a single emergency-visit encounter. Pet and owner fields
// are denormalized so queue screens render without a join.
type Case struct {
	ID                    string      `json:"id"`
	PatientID             string      `json:"patientId"`
	PetName               string      `json:"petName"`
	OwnerName             string      `json:"ownerName"`
	OwnerPhone            string      `json:"ownerPhone"`
	Species               Species     `json:"species"`
	TriageLevel           TriageLevel `json:"triageLevel"`
	Status                CaseStatus  `json:"status"`
	ChiefComplaint        string      `json:"chiefComplaint"`
	Vitals                Vitals      `json:"vitals"`
	CreatedAt             time.Time   `json:"createdAt"`
	WaitTime              int         `json:"waitTime"` // minutes, refreshed on a timer
	AssignedVetID         string      `json:"assignedVetId,omitempty"`
	AssignedVetName       string      `json:"assignedVetName,omitempty"`
	Files                 []CaseFile  `json:"files,omitempty"`
	Notes                 string      `json:"notes,omitempty"`
	TreatmentPlan         string      `json:"treatmentPlan,omitempty"`
	ConsultationStartTime *time.Time  `json:"consultationStartTime,omitempty"`
	ConsultationEndTime   *time.Time  `json:"consultationEndTime,omitempty"`
}

// ScreenShare tracks the single participant sharing their screen on a call.
type ScreenShare struct {
	HolderID string `json:"holderId"`
	Active   bool   `json:"active"`
}

// VideoCall represents a consultation session. Ended calls stay in the
// collection with IsActive false; they are never removed.
type VideoCall struct {
	ID           string       `json:"id"`
	CaseID       string       `json:"caseId"`
	Participants []string     `json:"participants"`
	IsActive     bool         `json:"isActive"`
	StartedAt    time.Time    `json:"startedAt"`
	ScreenShare  *ScreenShare `json:"screenShare,omitempty"`
}

// DefaultVitals returns the clinical defaults substituted when a vitals
// record is missing fields at intake.
func DefaultVitals() Vitals {
	return Vitals{
		Temperature:         38.5,
		HeartRate:           100,
		RespiratoryRate:     24,
		MucousMembraneColor: "Pink",
		CapillaryRefillTime: "< 2 sec",
	}
}
