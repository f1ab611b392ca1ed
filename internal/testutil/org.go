package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeOrg is an httptest server that answers the Salesforce REST calls a
// search makes, plus the OAuth refresh-token grant.
type FakeOrg struct {
	*httptest.Server

	mu             sync.Mutex
	validToken     string
	refreshedToken string
	records        map[string][]map[string]any
	searchRecords  []map[string]any
	documents      map[string]string
	requests       int
	refreshes      int
}

// NewFakeOrg starts a fake org accepting token. It is closed with the test.
func NewFakeOrg(t *testing.T, token string) *FakeOrg {
	t.Helper()
	org := &FakeOrg{
		validToken:     token,
		refreshedToken: token + "-refreshed",
		records:        map[string][]map[string]any{},
		documents:      map[string]string{},
	}
	org.Server = httptest.NewServer(http.HandlerFunc(org.serve))
	t.Cleanup(org.Close)
	return org
}

// SetRecords sets the rows returned for queries FROM sobject.
func (o *FakeOrg) SetRecords(sobject string, rows ...map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records[sobject] = rows
}

// SetSearchRecords sets the rows returned by full-text search.
func (o *FakeOrg) SetSearchRecords(rows ...map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searchRecords = rows
}

// SetDocument sets the XML body returned for a tooling sObject id.
func (o *FakeOrg) SetDocument(id, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.documents[id] = body
}

// ExpireToken makes the current token invalid; a refresh grant issues a
// new one.
func (o *FakeOrg) ExpireToken() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validToken = o.refreshedToken
}

// RefreshedToken is the access token a refresh grant returns.
func (o *FakeOrg) RefreshedToken() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshedToken
}

// Requests returns how many REST calls were served.
func (o *FakeOrg) Requests() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requests
}

// Refreshes returns how many refresh grants were served.
func (o *FakeOrg) Refreshes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshes
}

func (o *FakeOrg) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r.URL.Path == "/services/oauth2/token" {
		o.refreshes++
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": o.refreshedToken,
			"token_type":   "Bearer",
			"instance_url": o.URL,
		})
		return
	}

	o.requests++
	if r.Header.Get("Authorization") != "Bearer "+o.validToken {
		writeJSON(w, http.StatusUnauthorized, []map[string]string{{
			"message":   "Session expired or invalid",
			"errorCode": "INVALID_SESSION_ID",
		}})
		return
	}

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/query/"):
		rows := o.records[fromClause(r.URL.Query().Get("q"))]
		if rows == nil {
			rows = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"totalSize": len(rows),
			"done":      true,
			"records":   rows,
		})
	case strings.HasSuffix(path, "/search/"):
		rows := o.searchRecords
		if rows == nil {
			rows = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"searchRecords": rows})
	case strings.Contains(path, "/tooling/sobjects/"):
		id := path[strings.LastIndex(path, "/")+1:]
		body, ok := o.documents[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, []map[string]string{{
				"message":   "The requested resource does not exist",
				"errorCode": "NOT_FOUND",
			}})
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func fromClause(soql string) string {
	fields := strings.Fields(soql)
	for i, f := range fields {
		if strings.EqualFold(f, "FROM") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
