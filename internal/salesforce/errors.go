package salesforce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrSessionExpired reports that the access token is no longer accepted.
// Callers react by refreshing the token and retrying; nothing in this
// package refreshes on its own.
var ErrSessionExpired = errors.New("salesforce session expired")

// invalidSessionCode is the error code Salesforce returns for stale tokens.
const invalidSessionCode = "INVALID_SESSION_ID"

// APIError is a non-2xx response from Salesforce.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("salesforce api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("salesforce api error %d: %s", e.StatusCode, e.Message)
}

// SessionExpired reports whether the error means the token is invalid.
func (e *APIError) SessionExpired() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == invalidSessionCode
}

// Is makes errors.Is(err, ErrSessionExpired) match session-invalid responses.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.SessionExpired()
}

// IsSessionExpired reports whether err, or anything it wraps, is a
// session-invalid response.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// apiErrorBody is one element of the JSON error array Salesforce returns.
type apiErrorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// oauthErrorBody is the shape used by the OAuth endpoints.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// parseError builds an APIError from a failed response body. The session
// marker is looked for in structured JSON first, then anywhere in the body,
// since tooling document fetches may answer in XML.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var list []apiErrorBody
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		apiErr.Code = list[0].ErrorCode
		apiErr.Message = list[0].Message
		return apiErr
	}

	var oauthErr oauthErrorBody
	if err := json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Error != "" {
		apiErr.Code = oauthErr.Error
		apiErr.Message = oauthErr.ErrorDescription
		return apiErr
	}

	if bytes.Contains(body, []byte(invalidSessionCode)) {
		apiErr.Code = invalidSessionCode
	}
	apiErr.Message = truncate(strings.TrimSpace(string(body)), 200)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
