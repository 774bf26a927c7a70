package handlers

import (
	"vet-telehealth-server/internal/models"
	"vet-telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClinicianHandler handles staff-directory requests: the assignment
// dropdowns on the queue screen and the admin staff screens.
type ClinicianHandler struct {
	DB *gorm.DB
}

// NewClinicianHandler creates a new ClinicianHandler.
func NewClinicianHandler(db *gorm.DB) *ClinicianHandler {
	return &ClinicianHandler{DB: db}
}

// GetClinicians handles fetching assignable staff (vets and techs).
// Pass ?onShift=true to restrict to staff currently on shift.
func (h *ClinicianHandler) GetClinicians(c *gin.Context) {
	query := h.DB.Where("role IN ?", []models.Role{models.RoleVet, models.RoleTech})
	if c.Query("onShift") == "true" {
		query = query.Where("is_on_shift = ?", true)
	}

	var users []models.User
	if err := query.Order("last_name asc").Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch clinicians: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	utils.Success(c, "Clinicians fetched successfully", sanitized)
}

// GetStaff handles fetching all staff accounts (admin).
func (h *ClinicianHandler) GetStaff(c *gin.Context) {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch staff: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	utils.Success(c, "Staff fetched successfully", sanitized)
}

// GetStaffByID handles fetching a single staff account by ID (admin).
func (h *ClinicianHandler) GetStaffByID(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Staff account not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Staff account fetched successfully", user.Sanitize())
}

// CreateStaffRequest represents the request body for creating a staff
// account by an admin.
type CreateStaffRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Role          string `json:"role" binding:"required,oneof=admin vet tech"`
	Title         string `json:"title"`
	LicenseNumber string `json:"licenseNumber"`
}

// CreateStaff handles creating a new staff account (admin).
func (h *ClinicianHandler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user := models.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Role:          models.Role(req.Role),
		Title:         req.Title,
		LicenseNumber: req.LicenseNumber,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create staff account: "+err.Error())
		return
	}

	utils.Created(c, "Staff account created successfully", user.Sanitize())
}

// DeleteStaff handles removing a staff account (admin).
func (h *ClinicianHandler) DeleteStaff(c *gin.Context) {
	userID := c.Param("id")

	result := h.DB.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete staff account: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Staff account not found")
		return
	}

	utils.Success(c, "Staff account deleted successfully", nil)
}
