package salesforce

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_String(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"attributes": {"type": "ValidationRule"},
		"Id": "03d000000000001",
		"ValidationName": "Require_Account_Name",
		"Active": true,
		"EntityDefinition": {"QualifiedApiName": "Account"},
		"Description": null,
		"Count": 3
	}`), &r))

	assert.Equal(t, "03d000000000001", r.ID())
	assert.Equal(t, "ValidationRule", r.Type())
	assert.Equal(t, "Account", r.String("EntityDefinition.QualifiedApiName"))
	assert.Equal(t, "true", r.String("Active"))
	assert.Equal(t, "3", r.String("Count"))
	assert.Equal(t, "", r.String("Description"))
	assert.Equal(t, "", r.String("Missing.Path"))
	assert.Equal(t, "", r.String("ValidationName.Deeper"))
}

func TestRecord_ValueNull(t *testing.T) {
	r := Record{"EntityDefinition": nil}
	_, ok := r.Value("EntityDefinition.QualifiedApiName")
	assert.False(t, ok)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantExpired bool
	}{
		{"json array", 400, `[{"message":"No such column","errorCode":"INVALID_FIELD"}]`, "INVALID_FIELD", false},
		{"oauth", 400, `{"error":"invalid_grant","error_description":"expired access/refresh token"}`, "invalid_grant", false},
		{"plain text", 500, "upstream exploded", "", false},
		{"unauthorized", 401, "", "", true},
		{"marker in text", 400, "INVALID_SESSION_ID: nope", "INVALID_SESSION_ID", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantExpired, err.SessionExpired())
			assert.NotEmpty(t, err.Error())
		})
	}
}
