package handlers

import (
	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// IntakeHandler handles the patient-intake screen: registering an owner and
// their pet and opening a triage case in a single submission.
type IntakeHandler struct {
	Store *demo.Store
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(store *demo.Store) *IntakeHandler {
	return &IntakeHandler{Store: store}
}

// VitalsInput carries the optional intake vitals. Absent fields fall back
// to the clinical defaults.
type VitalsInput struct {
	Temperature         *float64 `json:"temperature" binding:"omitempty,min=30.0,max=45.0"`
	HeartRate           *int     `json:"heartRate" binding:"omitempty,min=20,max=400"`
	RespiratoryRate     *int     `json:"respiratoryRate" binding:"omitempty,min=4,max=200"`
	Weight              *float64 `json:"weight" binding:"omitempty,min=0.1,max=1000.0"`
	MucousMembraneColor *string  `json:"mucousMembraneColor"`
	CapillaryRefillTime *string  `json:"capillaryRefillTime"`
	PainScale           *int     `json:"painScale" binding:"omitempty,min=0,max=10"`
	BloodPressure       *string  `json:"bloodPressure"`
}

// IntakeRequest represents the full intake form submission.
type IntakeRequest struct {
	Owner struct {
		FirstName        string `json:"firstName" binding:"required"`
		LastName         string `json:"lastName" binding:"required"`
		Phone            string `json:"phone" binding:"required"`
		Email            string `json:"email" binding:"omitempty,email"`
		AltPhone         string `json:"altPhone"`
		Address          string `json:"address"`
		EmergencyContact string `json:"emergencyContact"`
	} `json:"owner" binding:"required"`

	Patient struct {
		Name           string   `json:"name" binding:"required"`
		Species        string   `json:"species" binding:"required,oneof=dog cat other"`
		Breed          string   `json:"breed"`
		Age            int      `json:"age" binding:"omitempty,min=0,max=200"`
		Weight         float64  `json:"weight" binding:"omitempty,min=0"`
		MedicalHistory []string `json:"medicalHistory"`
		Allergies      []string `json:"allergies"`
		Medications    []string `json:"medications"`
		MicrochipID    string   `json:"microchipId"`
	} `json:"patient" binding:"required"`

	TriageLevel    string       `json:"triageLevel" binding:"required,oneof=red yellow green"`
	ChiefComplaint string       `json:"chiefComplaint" binding:"required"`
	Vitals         *VitalsInput `json:"vitals"`
}

// IntakeResponse bundles the three records the intake creates.
type IntakeResponse struct {
	Owner   demo.Owner   `json:"owner"`
	Patient demo.Patient `json:"patient"`
	Case    demo.Case    `json:"case"`
}

// CreateIntake handles a full intake submission: owner, patient, and case.
func (h *IntakeHandler) CreateIntake(c *gin.Context) {
	var req IntakeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	owner := h.Store.AddOwner(demo.Owner{
		FirstName:        req.Owner.FirstName,
		LastName:         req.Owner.LastName,
		Phone:            req.Owner.Phone,
		Email:            req.Owner.Email,
		AltPhone:         req.Owner.AltPhone,
		Address:          req.Owner.Address,
		EmergencyContact: req.Owner.EmergencyContact,
	})

	patient := h.Store.AddPatient(demo.Patient{
		Name:           req.Patient.Name,
		Species:        demo.Species(req.Patient.Species),
		Breed:          req.Patient.Breed,
		Age:            req.Patient.Age,
		Weight:         req.Patient.Weight,
		OwnerID:        owner.ID,
		MedicalHistory: req.Patient.MedicalHistory,
		Allergies:      req.Patient.Allergies,
		Medications:    req.Patient.Medications,
		MicrochipID:    req.Patient.MicrochipID,
	})

	newCase := h.Store.AddCase(demo.Case{
		PatientID:      patient.ID,
		PetName:        patient.Name,
		OwnerName:      owner.Name,
		OwnerPhone:     owner.Phone,
		Species:        patient.Species,
		TriageLevel:    demo.TriageLevel(req.TriageLevel),
		Status:         demo.StatusWaiting,
		ChiefComplaint: req.ChiefComplaint,
		Vitals:         mergeVitals(req.Vitals, patient.Weight),
	})

	utils.Created(c, "Intake completed successfully", IntakeResponse{
		Owner:   owner,
		Patient: patient,
		Case:    newCase,
	})
}

// UpdatePatientRequest represents a partial patient update.
type UpdatePatientRequest struct {
	Name           *string  `json:"name"`
	Breed          *string  `json:"breed"`
	Age            *int     `json:"age" binding:"omitempty,min=0,max=200"`
	Weight         *float64 `json:"weight" binding:"omitempty,min=0"`
	MedicalHistory []string `json:"medicalHistory"`
	Allergies      []string `json:"allergies"`
	Medications    []string `json:"medications"`
	PhotoURL       *string  `json:"photoUrl"`
	MicrochipID    *string  `json:"microchipId"`
}

// UpdatePatient handles a partial update to a patient record.
func (h *IntakeHandler) UpdatePatient(c *gin.Context) {
	patientID := c.Param("id")

	var req UpdatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	h.Store.UpdatePatient(patientID, demo.PatientPatch{
		Name:           req.Name,
		Breed:          req.Breed,
		Age:            req.Age,
		Weight:         req.Weight,
		MedicalHistory: req.MedicalHistory,
		Allergies:      req.Allergies,
		Medications:    req.Medications,
		PhotoURL:       req.PhotoURL,
		MicrochipID:    req.MicrochipID,
	})

	// Updates on unknown ids are silent no-ops in the store, so report
	// not-found from the resulting state.
	patient, ok := h.Store.GetPatient(patientID)
	if !ok {
		utils.NotFound(c, "Patient not found")
		return
	}
	utils.Success(c, "Patient updated successfully", patient)
}

// GetPatient handles fetching a patient by id.
func (h *IntakeHandler) GetPatient(c *gin.Context) {
	patient, ok := h.Store.GetPatient(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Patient not found")
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// GetOwners handles fetching the owner collection.
func (h *IntakeHandler) GetOwners(c *gin.Context) {
	utils.Success(c, "Owners fetched successfully", h.Store.Owners())
}

// mergeVitals overlays provided intake vitals onto the clinical defaults.
func mergeVitals(in *VitalsInput, patientWeight float64) demo.Vitals {
	v := demo.DefaultVitals()
	v.Weight = patientWeight
	if in == nil {
		return v
	}
	if in.Temperature != nil {
		v.Temperature = *in.Temperature
	}
	if in.HeartRate != nil {
		v.HeartRate = *in.HeartRate
	}
	if in.RespiratoryRate != nil {
		v.RespiratoryRate = *in.RespiratoryRate
	}
	if in.Weight != nil {
		v.Weight = *in.Weight
	}
	if in.MucousMembraneColor != nil {
		v.MucousMembraneColor = *in.MucousMembraneColor
	}
	if in.CapillaryRefillTime != nil {
		v.CapillaryRefillTime = *in.CapillaryRefillTime
	}
	if in.PainScale != nil {
		v.PainScale = in.PainScale
	}
	if in.BloodPressure != nil {
		v.BloodPressure = *in.BloodPressure
	}
	return v
}
