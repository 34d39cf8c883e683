package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"face-attendance/domain/services"
	"face-attendance/pkg/utils"
)

type IdentityHandler struct {
	identityService services.IdentityService
}

func NewIdentityHandler(identityService services.IdentityService) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
	}
}

// EnrollRequest is the form data accompanying an enrollment image
type EnrollRequest struct {
	RegNo string `form:"reg_no" validate:"required,max=64"`
	Name  string `form:"name" validate:"required,max=128"`
}

// IdentityResponse is the public view of an enrolled profile. The stored
// embedding is never returned.
type IdentityResponse struct {
	RegNo     string `json:"reg_no"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Enroll registers or replaces a profile from an uploaded face image
func (h *IdentityHandler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	req.RegNo = c.FormValue("reg_no")
	req.Name = c.FormValue("name")
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid enrollment data", err)
	}

	imageData, contentType, err := readImageFile(c)
	if err != nil {
		return err
	}

	identity, err := h.identityService.Enroll(c.Context(), req.RegNo, req.Name, imageData, contentType)
	if err != nil {
		if errors.Is(err, services.ErrNoFaceInImage) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "No face detected in the enrollment image", err)
		}
		return err
	}

	return utils.SuccessResponse(c, "Profile enrolled", IdentityResponse{
		RegNo:     identity.RegNo,
		Name:      identity.Name,
		CreatedAt: identity.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: identity.UpdatedAt.Format("2006-01-02 15:04:05"),
	})
}

// Delete removes an enrolled profile. Attendance events are retained.
func (h *IdentityHandler) Delete(c *fiber.Ctx) error {
	regNo := c.Params("reg_no")
	if regNo == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Registration number is required", nil)
	}

	if err := h.identityService.Delete(c.Context(), regNo); err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.NotFoundResponse(c, "Identity not found")
		}
		return err
	}

	return utils.SuccessResponse(c, "Profile deleted", fiber.Map{"reg_no": regNo})
}

// List returns every enrolled profile
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.identityService.List(c.Context())
	if err != nil {
		return err
	}

	response := make([]IdentityResponse, len(identities))
	for i, identity := range identities {
		response[i] = IdentityResponse{
			RegNo:     identity.RegNo,
			Name:      identity.Name,
			CreatedAt: identity.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt: identity.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	return utils.SuccessResponse(c, "Profiles retrieved", fiber.Map{
		"identities": response,
		"count":      len(response),
	})
}
