package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase represents a test case for HTTP handler testing.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	ExpectedCode   string // expected error code, empty for success responses
	Setup          func(t *testing.T, tc *TestContext)
	Validate       func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases runs each case against handler in its own subtest
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase invokes handler directly with a request built from tc
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}
	req := httptest.NewRequest(method, path, jsonBody(t, tc.Body))
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req

	testCtx := &TestContext{Context: c, Recorder: w, Engine: engine}
	if tc.Setup != nil {
		tc.Setup(t, testCtx)
	}

	handler(c)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code")
	}
	if tc.ExpectedCode != "" {
		AssertErrorResponse(t, testCtx, tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

// APIClient sends requests through a full engine as one tenant and user,
// using the X-Tenant-ID / X-User-ID identity headers.
type APIClient struct {
	t        *testing.T
	handler  http.Handler
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// NewAPIClient creates a client for handler
func NewAPIClient(t *testing.T, handler http.Handler, tenantID, userID uuid.UUID) *APIClient {
	return &APIClient{t: t, handler: handler, TenantID: tenantID, UserID: userID}
}

// Do sends a request with an optional JSON body and extra headers
func (a *APIClient) Do(method, path string, body any, headers ...map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()

	req := httptest.NewRequest(method, path, jsonBody(a.t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Tenant-ID", a.TenantID.String())
	req.Header.Set("X-User-ID", a.UserID.String())
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// Get sends a GET request
func (a *APIClient) Get(path string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.Do(http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON body
func (a *APIClient) Post(path string, body any, headers ...map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.Do(http.MethodPost, path, body, headers...)
}

// apiEnvelope mirrors dto.Response with the data left raw
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse JSON response: %s", w.Body.String())
	return env
}

// DecodeData asserts status and returns the response data decoded as T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status, body: %s", w.Body.String())
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, "Expected success response")

	var out T
	if len(env.Data) == 0 {
		return out
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// DecodeMeta returns the pagination meta of a list response
func DecodeMeta(t *testing.T, w *httptest.ResponseRecorder) dto.Meta {
	t.Helper()

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Meta, "Expected pagination meta")
	return *env.Meta
}

// DecodeError asserts status and returns the error of the response
func DecodeError(t *testing.T, w *httptest.ResponseRecorder, status int) dto.ErrorInfo {
	t.Helper()

	require.Equal(t, status, w.Code, "Unexpected status, body: %s", w.Body.String())
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, "Expected error object in response")
	return *env.Error
}

// JSONResponse parses the response body as JSON.
func JSONResponse(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()

	var result map[string]any
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &result), "Failed to parse JSON response")
	return result
}

// JSONResponseAs parses the response body into T.
func JSONResponseAs[T any](t *testing.T, tc *TestContext) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &result), "Failed to parse JSON response")
	return result
}

// AssertSuccessResponse asserts the response is a successful API response.
func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.Equal(t, true, resp["success"], "Expected success to be true")
	assert.Nil(t, resp["error"], "Expected no error")
}

// AssertErrorResponse asserts the response is an error with expectedCode.
func AssertErrorResponse(t *testing.T, tc *TestContext, expectedCode string) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.Equal(t, false, resp["success"], "Expected success to be false")

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "Expected error object in response")
	assert.Equal(t, expectedCode, errMap["code"], "Unexpected error code")
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}

func jsonBody(t *testing.T, v any) io.Reader {
	if v == nil {
		return nil
	}
	return ToJSONReader(t, v)
}
