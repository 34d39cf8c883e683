package handlers

import (
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"face-attendance/domain/services"
	"face-attendance/pkg/utils"
)

const maxImageSize = 10 * 1024 * 1024

// Box colors rendered by the kiosk around the detected face.
const (
	boxGreen  = "green"
	boxOrange = "orange"
	boxRed    = "red"
)

type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

func NewAttendanceHandler(attendanceService services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// MarkResponse is the kiosk-facing reply for every mark request
type MarkResponse struct {
	Message      string `json:"message"`
	RecognizedID string `json:"recognized_id"`
	BoxColor     string `json:"box_color"`
	Success      bool   `json:"success"`
}

// MarkOnlineRequest carries the claimed identity for remote verification
type MarkOnlineRequest struct {
	RegNo string `form:"reg_no" validate:"required"`
}

// MarkIn handles on-site check-in from a captured frame
func (h *AttendanceHandler) MarkIn(c *fiber.Ctx) error {
	imageData, contentType, err := readImageFile(c)
	if err != nil {
		return err
	}

	result, err := h.attendanceService.MarkIn(c.Context(), imageData, contentType)
	if err != nil {
		return err
	}

	return c.JSON(buildMarkResponse(result))
}

// MarkOut handles on-site check-out from a captured frame
func (h *AttendanceHandler) MarkOut(c *fiber.Ctx) error {
	imageData, contentType, err := readImageFile(c)
	if err != nil {
		return err
	}

	result, err := h.attendanceService.MarkOut(c.Context(), imageData, contentType)
	if err != nil {
		return err
	}

	return c.JSON(buildMarkResponse(result))
}

// MarkOnline handles remote verification against a claimed identity
func (h *AttendanceHandler) MarkOnline(c *fiber.Ctx) error {
	var req MarkOnlineRequest
	req.RegNo = c.FormValue("reg_no")
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Registration number is required", err)
	}

	imageData, contentType, err := readImageFile(c)
	if err != nil {
		return err
	}

	result, err := h.attendanceService.MarkOnline(c.Context(), imageData, contentType, req.RegNo)
	if err != nil {
		return err
	}

	return c.JSON(buildMarkResponse(result))
}

// History returns an identity's attendance events, newest first
func (h *AttendanceHandler) History(c *fiber.Ctx) error {
	regNo := c.Params("reg_no")
	if regNo == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Registration number is required", nil)
	}

	events, err := h.attendanceService.History(c.Context(), regNo)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "History retrieved", fiber.Map{
		"reg_no": regNo,
		"events": events,
		"count":  len(events),
	})
}

// readImageFile pulls the uploaded frame out of the multipart form. Failures
// come back as *fiber.Error so the app error handler renders the envelope.
func readImageFile(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Image file is required")
	}

	if file.Size > maxImageSize {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "File size exceeds 10MB limit")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid image type. Allowed: jpeg, png, webp")
	}

	imageData, err := readMultipartFile(file)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusInternalServerError, "Failed to read file")
	}

	return imageData, contentType, nil
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	imageData := make([]byte, file.Size)
	if _, err := f.Read(imageData); err != nil {
		return nil, err
	}
	return imageData, nil
}

func isValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}

// buildMarkResponse maps a service outcome to the kiosk reply. Green means
// an accepted or re-verified mark, orange a state-rule rejection for a
// recognized person, red that no usable identity resolved.
func buildMarkResponse(result *services.MarkResult) MarkResponse {
	recognizedID := "N/A"
	if result.RegNo != "" {
		recognizedID = fmt.Sprintf("%s (%s)", result.Name, result.RegNo)
	}

	resp := MarkResponse{RecognizedID: recognizedID}

	switch result.Outcome {
	case services.OutcomeCheckedIn:
		resp.Message = "Checked in successfully"
		resp.BoxColor = boxGreen
		resp.Success = true
	case services.OutcomeCheckedOut:
		resp.Message = "Checked out successfully"
		resp.BoxColor = boxGreen
		resp.Success = true
	case services.OutcomeVerified:
		resp.Message = "Attendance verified"
		resp.BoxColor = boxGreen
		resp.Success = true
	case services.OutcomeAlreadyVerified:
		resp.Message = "Attendance already verified today"
		resp.BoxColor = boxGreen
		resp.Success = true
	case services.OutcomeAlreadyCheckedIn:
		resp.Message = "Already checked in, check out first"
		resp.BoxColor = boxOrange
	case services.OutcomeMustCheckInFirst:
		resp.Message = "No check-in found for today, check in first"
		resp.BoxColor = boxOrange
	case services.OutcomeNoFaceDetected:
		resp.Message = "No face detected in the image"
		resp.BoxColor = boxRed
	case services.OutcomeNoMatch:
		resp.Message = "Face not recognized"
		resp.BoxColor = boxRed
	case services.OutcomeIdentityMismatch:
		resp.Message = "Face does not match the claimed identity"
		resp.BoxColor = boxRed
	default:
		resp.Message = "Attendance request could not be processed"
		resp.BoxColor = boxRed
	}

	return resp
}
