package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringbridge/internal/application/dto"
	"ringbridge/internal/application/service"
	"ringbridge/pkg/errors"
)

// fakeSessionService scripts the pairing service for handler tests.
type fakeSessionService struct {
	startResp *dto.DeviceStartResponse
	startErr  error
	startBase string

	pollResp *dto.DevicePollResult
	pollErr  error
	polled   string

	authErr      error
	authUserCode string
	authIdentity string
	authToken    string
}

var _ service.DeviceSessionService = (*fakeSessionService)(nil)

func (f *fakeSessionService) Start(ctx context.Context, baseURL string) (*dto.DeviceStartResponse, error) {
	f.startBase = baseURL
	return f.startResp, f.startErr
}

func (f *fakeSessionService) Poll(ctx context.Context, deviceCode string) (*dto.DevicePollResult, error) {
	f.polled = deviceCode
	return f.pollResp, f.pollErr
}

func (f *fakeSessionService) Authorize(ctx context.Context, userCode, identity, opaqueToken string) error {
	f.authUserCode = userCode
	f.authIdentity = identity
	f.authToken = opaqueToken
	return f.authErr
}

func (f *fakeSessionService) Sweep() {}

func deviceTestRouter(svc service.DeviceSessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDeviceHandler(svc)
	r := gin.New()
	r.POST("/device/start", h.Start)
	r.GET("/device/poll", h.Poll)
	r.POST("/device/authorize", h.Authorize)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDeviceStartEndpoint(t *testing.T) {
	svc := &fakeSessionService{startResp: &dto.DeviceStartResponse{
		DeviceCode: "dev-1",
		UserCode:   "ABCD-23",
		AuthURL:    "https://bridge.example.com/pair?code=ABCD-23",
		ExpiresIn:  180,
		Interval:   3,
	}}
	r := deviceTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/device/start", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "bridge.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://bridge.example.com", svc.startBase)

	body := decodeBody(t, w)
	assert.Equal(t, "dev-1", body["device_code"])
	assert.Equal(t, "ABCD-23", body["user_code"])
	assert.Equal(t, "https://bridge.example.com/pair?code=ABCD-23", body["auth_url"])
	assert.Equal(t, float64(180), body["expires_in"])
	assert.Equal(t, float64(3), body["interval"])
}

func TestDevicePollEndpoint_MissingParam(t *testing.T) {
	r := deviceTestRouter(&fakeSessionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device/poll", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "missing_device_code", body["message"])
}

func TestDevicePollEndpoint_Pending(t *testing.T) {
	svc := &fakeSessionService{pollResp: &dto.DevicePollResult{Status: "pending"}}
	r := deviceTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device/poll?device_code=dev-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-1", svc.polled)
	body := decodeBody(t, w)
	assert.Equal(t, "pending", body["status"])
	_, hasEmail := body["email"]
	assert.False(t, hasEmail, "pending result carries no identity")
}

func TestDevicePollEndpoint_Authorized(t *testing.T) {
	svc := &fakeSessionService{pollResp: &dto.DevicePollResult{
		Status: "ok", Email: "user@example.com", Token: "opaque-1",
	}}
	r := deviceTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device/poll?device_code=dev-1", nil))

	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "user@example.com", body["email"])
	assert.Equal(t, "opaque-1", body["token"])
}

func TestDevicePollEndpoint_Expired(t *testing.T) {
	svc := &fakeSessionService{pollErr: errors.ErrExpired("expired")}
	r := deviceTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device/poll?device_code=dev-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "expired", body["message"])
}

func TestDeviceAuthorizeEndpoint(t *testing.T) {
	svc := &fakeSessionService{}
	r := deviceTestRouter(svc)

	payload := `{"user_code":"ABCD-23","email":"user@example.com","token":"opaque-1"}`
	req := httptest.NewRequest(http.MethodPost, "/device/authorize", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ABCD-23", svc.authUserCode)
	assert.Equal(t, "user@example.com", svc.authIdentity)
	assert.Equal(t, "opaque-1", svc.authToken)
}

func TestDeviceAuthorizeEndpoint_MissingParams(t *testing.T) {
	for _, payload := range []string{
		`{}`,
		`{"user_code":"ABCD-23"}`,
		`{"email":"user@example.com"}`,
		`not json`,
	} {
		r := deviceTestRouter(&fakeSessionService{})
		req := httptest.NewRequest(http.MethodPost, "/device/authorize", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["ok"], "payload %q", payload)
		assert.Equal(t, "missing_params", body["error"], "payload %q", payload)
	}
}

func TestDeviceAuthorizeEndpoint_InvalidCode(t *testing.T) {
	svc := &fakeSessionService{authErr: errors.ErrInvalidCode("invalid_code")}
	r := deviceTestRouter(svc)

	payload := `{"user_code":"ZZZZ-99","email":"user@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/device/authorize", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "invalid_code", body["error"])
}
