package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	users       []*User
	populateErr error
}

func (ss *stubSource) Users(cb func(*User)) {
	for _, u := range ss.users {
		cb(u)
	}
}

func (ss *stubSource) Populate() error {
	return ss.populateErr
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// newUpsertServer accepts every upsert except for emails in reject, which get
// a structured validation error back.
func newUpsertServer(t *testing.T, reject map[string]bool, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		values := body["data"].(map[string]any)["values"].(map[string]any)
		email := values["email_addresses"].([]any)[0].(map[string]any)["email_address"].(string)
		*seen = append(*seen, email)

		w.Header().Set("Content-Type", "application/json")
		if reject[email] {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = fmt.Fprintf(w, `{"type":"validation_error","message":"rejected %s"}`, email)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
}

func TestSync_ContinuesPastUpsertFailure(t *testing.T) {
	var seen []string
	server := newUpsertServer(t, map[string]bool{"bad@foo.com": true}, &seen)
	defer server.Close()

	source := &stubSource{users: []*User{
		{Email: "jane@foo.com", Name: "Jane Doe", LastSession: "April 19, 2024, 1:19 PM"},
		{Email: "bad@foo.com", Name: "Bad Actor", LastSession: "April 19, 2024, 1:19 PM"},
		{Email: "jon@foo.com", Name: "Jon Snow", LastSession: "April 19, 2024, 1:19 PM"},
	}}

	var buf bytes.Buffer
	sync := NewCrmSyncWithClient(source, NewClient(server.URL+"/v2/", "tok"), newTestLogger(&buf))

	stat, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@foo.com", "jon@foo.com"}, stat.SuccessUsers)
	assert.Equal(t, []string{"bad@foo.com"}, stat.FailedUsers)
	assert.Equal(t, []string{"jane@foo.com", "bad@foo.com", "jon@foo.com"}, seen)

	// the error payload must end up in the log
	assert.Contains(t, buf.String(), "person upsert failed")
	assert.Contains(t, buf.String(), "validation_error")
}

func TestSync_UnparseableLastSessionSkipsNetworkCall(t *testing.T) {
	var seen []string
	server := newUpsertServer(t, nil, &seen)
	defer server.Close()

	source := &stubSource{users: []*User{
		{Email: "jane@foo.com", Name: "Jane Doe", LastSession: "yesterday-ish"},
		{Email: "jon@foo.com", Name: "Jon Snow", LastSession: "April 19, 2024, 1:19 PM"},
	}}

	var buf bytes.Buffer
	sync := NewCrmSyncWithClient(source, NewClient(server.URL+"/v2/", "tok"), newTestLogger(&buf))

	stat, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"jon@foo.com"}, seen)
	assert.Equal(t, []string{"jane@foo.com"}, stat.FailedUsers)
	assert.Equal(t, []string{"jon@foo.com"}, stat.SuccessUsers)
}

func TestSync_PopulateErrorAbortsRun(t *testing.T) {
	source := &stubSource{populateErr: fmt.Errorf("source unavailable")}
	sync := NewCrmSyncWithClient(source, NewClient("http://localhost/v2/", "tok"), newTestLogger(new(bytes.Buffer)))

	stat, err := sync.Sync(context.Background())
	require.Error(t, err)
	assert.Nil(t, stat)
}

func TestSyncUser_UpsertFailureIsAbsorbed(t *testing.T) {
	var seen []string
	server := newUpsertServer(t, map[string]bool{"bad@foo.com": true}, &seen)
	defer server.Close()

	var buf bytes.Buffer
	sync := NewCrmSyncWithClient(&stubSource{}, NewClient(server.URL+"/v2/", "tok"), newTestLogger(&buf))

	err := sync.SyncUser(context.Background(), &User{
		Email: "bad@foo.com", Name: "Bad Actor", LastSession: "April 19, 2024, 1:19 PM",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bad@foo.com"}, seen)
	assert.Contains(t, buf.String(), "validation_error")
}

func TestSyncUser_MappingErrorPropagatesBeforeRequest(t *testing.T) {
	var seen []string
	server := newUpsertServer(t, nil, &seen)
	defer server.Close()

	sync := NewCrmSyncWithClient(&stubSource{}, NewClient(server.URL+"/v2/", "tok"), newTestLogger(new(bytes.Buffer)))

	err := sync.SyncUser(context.Background(), &User{
		Email: "jane@foo.com", Name: "Jane Doe", LastSession: "garbage",
	})
	require.Error(t, err)
	assert.Empty(t, seen)
}
