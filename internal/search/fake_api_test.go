package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/asteroid-belt/metascope/internal/salesforce"
)

// reply is a canned answer for one fake endpoint.
type reply struct {
	records []salesforce.Record
	body    string
	err     error
	delay   time.Duration
}

// fakeAPI answers queries by the sObject named in the FROM clause.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	tooling map[string]reply
	data    map[string]reply
	search  reply
	docs    map[string]reply
	soql    []string
	sosl    []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tooling: map[string]reply{},
		data:    map[string]reply{},
		docs:    map[string]reply{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) Query(ctx context.Context, _ salesforce.Session, soql string, _ int) ([]salesforce.Record, error) {
	obj := fromObject(soql)
	f.record("query:" + obj)
	f.mu.Lock()
	f.soql = append(f.soql, soql)
	r := f.data[obj]
	f.mu.Unlock()
	return r.records, wait(ctx, r)
}

func (f *fakeAPI) ToolingQuery(ctx context.Context, _ salesforce.Session, soql string, _ int) ([]salesforce.Record, error) {
	obj := fromObject(soql)
	f.record("tooling:" + obj)
	f.mu.Lock()
	f.soql = append(f.soql, soql)
	r := f.tooling[obj]
	f.mu.Unlock()
	return r.records, wait(ctx, r)
}

func (f *fakeAPI) Search(ctx context.Context, _ salesforce.Session, sosl string) ([]salesforce.Record, error) {
	f.record("search")
	f.mu.Lock()
	f.sosl = append(f.sosl, sosl)
	r := f.search
	f.mu.Unlock()
	return r.records, wait(ctx, r)
}

func (f *fakeAPI) FetchDocument(ctx context.Context, _ salesforce.Session, sobject, id string) (string, error) {
	f.record("document:" + sobject + "/" + id)
	f.mu.Lock()
	r := f.docs[id]
	f.mu.Unlock()
	if err := wait(ctx, r); err != nil {
		return "", err
	}
	return r.body, nil
}

// wait sleeps for the reply's delay, honouring ctx, then returns its error.
func wait(ctx context.Context, r reply) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func fromObject(soql string) string {
	fields := strings.Fields(soql)
	for i, f := range fields {
		if f == "FROM" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func testSession() salesforce.Session {
	return salesforce.Session{
		InstanceURL: "https://example.my.salesforce.com",
		AccessToken: "token",
		APIVersion:  "60.0",
	}
}

func apexClass(id, name, body string) salesforce.Record {
	return salesforce.Record{
		"attributes": map[string]any{"type": "ApexClass"},
		"Id":         id,
		"Name":       name,
		"Body":       body,
	}
}

func expiredError() error {
	return &salesforce.APIError{
		StatusCode: 401,
		Code:       "INVALID_SESSION_ID",
		Message:    "Session expired or invalid",
	}
}

// bodyWithMatches builds a body of n lines where the listed 1-based lines
// mention term.
func bodyWithMatches(n int, term string, lines ...int) string {
	hit := make(map[int]bool, len(lines))
	for _, l := range lines {
		hit[l] = true
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if hit[i] {
			b.WriteString("    " + term + " acct = new " + term + "();")
		} else {
			b.WriteString("    Integer x = 1;")
		}
		if i < n {
			b.WriteString("\n")
		}
	}
	return b.String()
}
