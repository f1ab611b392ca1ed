// Package testutil provides testing utilities.
package testutil

import (
	"os"
	"testing"
)

// SkipIntegrationTests skips the test unless METASCOPE_INTEGRATION is set.
// Use this for tests that talk to a real Salesforce org; they also need
// METASCOPE_INSTANCE_URL and METASCOPE_ACCESS_TOKEN.
//
// Run with: METASCOPE_INTEGRATION=1 go test ./...
func SkipIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv("METASCOPE_INTEGRATION") == "" {
		t.Skip("Skipping integration test (set METASCOPE_INTEGRATION=1 to run)")
	}
}
