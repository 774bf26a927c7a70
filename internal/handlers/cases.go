package handlers

import (
	"io"
	"time"

	"vet-telehealth-server/internal/demo"
	"vet-telehealth-server/internal/models"
	"vet-telehealth-server/internal/storage"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAttachmentBytes caps a single case attachment upload.
const maxAttachmentBytes = 20 << 20 // 20 MiB

// CaseHandler handles the case-detail screen.
type CaseHandler struct {
	Store *demo.Store
	DB    *gorm.DB
	Files *storage.AttachmentStore // nil when object storage is not configured
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(store *demo.Store, db *gorm.DB, files *storage.AttachmentStore) *CaseHandler {
	return &CaseHandler{Store: store, DB: db, Files: files}
}

// GetCase handles fetching a single case by id, along with its active video
// call if one exists.
func (h *CaseHandler) GetCase(c *gin.Context) {
	cs, ok := h.Store.GetCase(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Case not found")
		return
	}

	data := gin.H{"case": cs}
	if call, ok := h.Store.ActiveVideoCallForCase(cs.ID); ok {
		data["activeCall"] = call
	}
	utils.Success(c, "Case fetched successfully", data)
}

// UpdateCaseRequest represents a partial case update from the detail screen.
type UpdateCaseRequest struct {
	TriageLevel    *string      `json:"triageLevel" binding:"omitempty,oneof=red yellow green"`
	ChiefComplaint *string      `json:"chiefComplaint"`
	Vitals         *VitalsInput `json:"vitals"`
	Notes          *string      `json:"notes"`
	TreatmentPlan  *string      `json:"treatmentPlan"`
}

// UpdateCase handles a partial update to a case.
func (h *CaseHandler) UpdateCase(c *gin.Context) {
	caseID := c.Param("id")

	var req UpdateCaseRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := demo.CasePatch{
		ChiefComplaint: req.ChiefComplaint,
		Notes:          req.Notes,
		TreatmentPlan:  req.TreatmentPlan,
	}
	if req.TriageLevel != nil {
		level := demo.TriageLevel(*req.TriageLevel)
		patch.TriageLevel = &level
	}
	if req.Vitals != nil {
		if current, ok := h.Store.GetCase(caseID); ok {
			vitals := overlayVitals(current.Vitals, req.Vitals)
			patch.Vitals = &vitals
		}
	}

	h.Store.UpdateCase(caseID, patch)

	updated, ok := h.Store.GetCase(caseID)
	if !ok {
		utils.NotFound(c, "Case not found")
		return
	}
	utils.Success(c, "Case updated successfully", updated)
}

// AssignCaseRequest represents the request body for assigning a clinician.
type AssignCaseRequest struct {
	VetID string `json:"vetId" binding:"required"`
}

// AssignCase handles assigning a clinician, which readies the case. The
// display name comes from the staff directory, not from the caller.
func (h *CaseHandler) AssignCase(c *gin.Context) {
	caseID := c.Param("id")

	var req AssignCaseRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, ok := h.Store.GetCase(caseID); !ok {
		utils.NotFound(c, "Case not found")
		return
	}

	var vet models.User
	if err := h.DB.First(&vet, "id = ?", req.VetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Clinician not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	h.Store.AssignCase(caseID, vet.ID, vet.DisplayName())

	updated, _ := h.Store.GetCase(caseID)
	utils.Success(c, "Case assigned successfully", updated)
}

// UploadAttachment handles attaching a file to a case. Bytes go to object
// storage; the case record carries only metadata.
func (h *CaseHandler) UploadAttachment(c *gin.Context) {
	if h.Files == nil {
		utils.ServiceUnavailable(c, "File storage is not configured")
		return
	}

	caseID := c.Param("id")
	current, ok := h.Store.GetCase(caseID)
	if !ok {
		utils.NotFound(c, "Case not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "No file provided: "+err.Error())
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		utils.BadRequest(c, "File exceeds the attachment size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalServerError(c, "Failed to open uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.InternalServerError(c, "Failed to read uploaded file: "+err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	key, err := h.Files.Put(c.Request.Context(), caseID, fileHeader.Filename, contentType, data)
	if err != nil {
		utils.InternalServerError(c, "Failed to store attachment: "+err.Error())
		return
	}

	attachment := demo.CaseFile{
		ID:          "file-" + uuid.NewString(),
		Name:        fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		StorageKey:  key,
		UploadedAt:  time.Now(),
	}

	files := append(append([]demo.CaseFile(nil), current.Files...), attachment)
	h.Store.UpdateCase(caseID, demo.CasePatch{Files: files})

	utils.Created(c, "Attachment uploaded successfully", attachment)
}

// GetAttachment handles downloading a case attachment by its id.
func (h *CaseHandler) GetAttachment(c *gin.Context) {
	if h.Files == nil {
		utils.ServiceUnavailable(c, "File storage is not configured")
		return
	}

	current, ok := h.Store.GetCase(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Case not found")
		return
	}

	fileID := c.Param("fileId")
	var attachment *demo.CaseFile
	for i := range current.Files {
		if current.Files[i].ID == fileID {
			attachment = &current.Files[i]
			break
		}
	}
	if attachment == nil {
		utils.NotFound(c, "Attachment not found")
		return
	}

	data, contentType, err := h.Files.Get(c.Request.Context(), attachment.StorageKey)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch attachment: "+err.Error())
		return
	}
	if contentType == "" {
		contentType = attachment.ContentType
	}

	c.Header("Content-Disposition", `attachment; filename="`+attachment.Name+`"`)
	c.Data(200, contentType, data)
}

// overlayVitals applies provided fields onto an existing vitals snapshot.
func overlayVitals(base demo.Vitals, in *VitalsInput) demo.Vitals {
	if in.Temperature != nil {
		base.Temperature = *in.Temperature
	}
	if in.HeartRate != nil {
		base.HeartRate = *in.HeartRate
	}
	if in.RespiratoryRate != nil {
		base.RespiratoryRate = *in.RespiratoryRate
	}
	if in.Weight != nil {
		base.Weight = *in.Weight
	}
	if in.MucousMembraneColor != nil {
		base.MucousMembraneColor = *in.MucousMembraneColor
	}
	if in.CapillaryRefillTime != nil {
		base.CapillaryRefillTime = *in.CapillaryRefillTime
	}
	if in.PainScale != nil {
		base.PainScale = in.PainScale
	}
	if in.BloodPressure != nil {
		base.BloodPressure = *in.BloodPressure
	}
	return base
}
