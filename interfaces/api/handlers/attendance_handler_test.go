package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-attendance/domain/models"
	"face-attendance/domain/services"
)

// stubAttendanceService returns canned results so handler tests only
// exercise the HTTP mapping.
type stubAttendanceService struct {
	result       *services.MarkResult
	err          error
	history      []models.AttendanceEvent
	gotClaim     string
	gotImageData []byte
}

func (s *stubAttendanceService) MarkIn(_ context.Context, imageData []byte, _ string) (*services.MarkResult, error) {
	s.gotImageData = imageData
	return s.result, s.err
}

func (s *stubAttendanceService) MarkOut(_ context.Context, imageData []byte, _ string) (*services.MarkResult, error) {
	s.gotImageData = imageData
	return s.result, s.err
}

func (s *stubAttendanceService) MarkOnline(_ context.Context, imageData []byte, _ string, claimedRegNo string) (*services.MarkResult, error) {
	s.gotImageData = imageData
	s.gotClaim = claimedRegNo
	return s.result, s.err
}

func (s *stubAttendanceService) History(context.Context, string) ([]models.AttendanceEvent, error) {
	return s.history, s.err
}

func newTestApp(svc services.AttendanceService) *fiber.App {
	app := fiber.New()
	h := NewAttendanceHandler(svc)
	app.Post("/attendance/mark-in", h.MarkIn)
	app.Post("/attendance/mark-out", h.MarkOut)
	app.Post("/attendance/mark-online", h.MarkOnline)
	app.Get("/attendance/history/:reg_no", h.History)
	return app
}

func newImageRequest(t *testing.T, url string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", `form-data; name="image"; filename="frame.jpg"`)
	fileHeader.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(fileHeader)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeMarkResponse(t *testing.T, resp *http.Response) MarkResponse {
	t.Helper()
	var out MarkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestMarkInAcceptedResponse(t *testing.T) {
	svc := &stubAttendanceService{result: &services.MarkResult{
		Outcome: services.OutcomeCheckedIn,
		RegNo:   "S001",
		Name:    "Alice",
		Score:   0.92,
	}}
	app := newTestApp(svc)

	resp, err := app.Test(newImageRequest(t, "/attendance/mark-in", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeMarkResponse(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, "green", out.BoxColor)
	assert.Equal(t, "Alice (S001)", out.RecognizedID)
	assert.Equal(t, []byte("fake-jpeg-bytes"), svc.gotImageData)
}

func TestMarkInStateRuleRejection(t *testing.T) {
	svc := &stubAttendanceService{result: &services.MarkResult{
		Outcome: services.OutcomeAlreadyCheckedIn,
		RegNo:   "S001",
		Name:    "Alice",
		Score:   0.92,
	}}
	app := newTestApp(svc)

	resp, err := app.Test(newImageRequest(t, "/attendance/mark-in", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeMarkResponse(t, resp)
	assert.False(t, out.Success)
	assert.Equal(t, "orange", out.BoxColor)
	assert.Equal(t, "Alice (S001)", out.RecognizedID)
}

func TestMarkOutNoMatchResponse(t *testing.T) {
	svc := &stubAttendanceService{result: &services.MarkResult{
		Outcome: services.OutcomeNoMatch,
		Score:   0.41,
	}}
	app := newTestApp(svc)

	resp, err := app.Test(newImageRequest(t, "/attendance/mark-out", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeMarkResponse(t, resp)
	assert.False(t, out.Success)
	assert.Equal(t, "red", out.BoxColor)
	assert.Equal(t, "N/A", out.RecognizedID)
}

func TestMarkOnlinePassesClaim(t *testing.T) {
	svc := &stubAttendanceService{result: &services.MarkResult{
		Outcome: services.OutcomeVerified,
		RegNo:   "S002",
		Name:    "Bob",
		Score:   0.88,
	}}
	app := newTestApp(svc)

	resp, err := app.Test(newImageRequest(t, "/attendance/mark-online", map[string]string{"reg_no": "S002"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "S002", svc.gotClaim)
	out := decodeMarkResponse(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, "green", out.BoxColor)
}

func TestMarkOnlineMissingClaim(t *testing.T) {
	svc := &stubAttendanceService{}
	app := newTestApp(svc)

	resp, err := app.Test(newImageRequest(t, "/attendance/mark-online", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarkInMissingImage(t *testing.T) {
	svc := &stubAttendanceService{}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/attendance/mark-in", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryResponse(t *testing.T) {
	svc := &stubAttendanceService{history: []models.AttendanceEvent{
		{ID: 2, RegNo: "S001", Name: "Alice", Type: models.EventOut, Time: "17:00:00", Date: "2026-08-30", Mode: models.ModeOffline},
		{ID: 1, RegNo: "S001", Name: "Alice", Type: models.EventIn, Time: "09:00:00", Date: "2026-08-30", Mode: models.ModeOffline},
	}}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/attendance/history/S001", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			RegNo  string                   `json:"reg_no"`
			Events []models.AttendanceEvent `json:"events"`
			Count  int                      `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "S001", envelope.Data.RegNo)
	require.Equal(t, 2, envelope.Data.Count)
	assert.Equal(t, models.EventOut, envelope.Data.Events[0].Type)
}
