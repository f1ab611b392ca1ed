package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/search"
)

func TestParseCategoryURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    search.Category
		wantErr bool
	}{
		{name: "api name", uri: "metascope://category/ApexClass", want: search.CategoryApexClass},
		{name: "alias", uri: "metascope://category/flow", want: search.CategoryFlow},
		{name: "invalid scheme", uri: "http://category/flow", wantErr: true},
		{name: "empty name", uri: "metascope://category/", wantErr: true},
		{name: "unknown category", uri: "metascope://category/dashboard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategoryURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleCategoryResource(t *testing.T) {
	s, _, _ := setupServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "metascope://category/flow"

	contents, err := s.handleCategoryResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)

	var cat CategoryResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &cat))
	assert.Equal(t, "Flow", cat.Category)
	assert.Equal(t, "document", cat.Target)
	assert.Equal(t, "{name}.flow-meta.xml", cat.FileTemplate)
	assert.False(t, cat.FullText)
}

func TestHandleCategoryResource_Unknown(t *testing.T) {
	s, _, _ := setupServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "metascope://category/dashboard"

	_, err := s.handleCategoryResource(context.Background(), req)
	assert.Error(t, err)
}
