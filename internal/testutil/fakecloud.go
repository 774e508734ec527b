package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/photonlab/fdtdbench/internal/result"
)

// CloudAPI is an httptest stand-in for the remote task API. It accepts one
// task, walks it through a configurable status sequence, and serves a canned
// data document plus a result bundle.
type CloudAPI struct {
	Server *httptest.Server

	APIKey string
	TaskID string

	// Statuses is consumed one element per status poll; the last element
	// repeats once exhausted. Defaults to queued, running, success.
	Statuses []string
	// FailMessage is reported with an "error" status.
	FailMessage string
	// Data is the document served from /tasks/{id}/data.
	Data *result.Raw
	// Bundle is the byte content of the downloadable result bundle.
	Bundle []byte
	// SubmitStatus overrides the HTTP status of task submission when nonzero.
	SubmitStatus int

	mu          sync.Mutex
	polls       int
	Submissions int
}

// NewCloudAPI starts the fake API. The server shuts down with the test.
func NewCloudAPI(t *testing.T) *CloudAPI {
	t.Helper()
	f := &CloudAPI{
		APIKey:   "test-key",
		TaskID:   "task-0001",
		Statuses: []string{"queued", "running", "success"},
		Bundle:   []byte("HDF5-bundle-bytes"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", f.handleSubmit)
	mux.HandleFunc("GET /tasks/{id}", f.handleStatus)
	mux.HandleFunc("GET /tasks/{id}/data", f.handleData)
	mux.HandleFunc("GET /tasks/{id}/bundle", f.handleBundle)
	mux.HandleFunc("GET /bundle-download", func(w http.ResponseWriter, _ *http.Request) {
		w.Write(f.Bundle)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Polls reports how many status requests the fake has served.
func (f *CloudAPI) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *CloudAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Api-Key") != f.APIKey {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *CloudAPI) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	f.mu.Lock()
	f.Submissions++
	f.mu.Unlock()
	if f.SubmitStatus != 0 {
		http.Error(w, "submission refused", f.SubmitStatus)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"task_id": f.TaskID, "status": "queued"})
}

func (f *CloudAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	f.mu.Lock()
	idx := f.polls
	f.polls++
	f.mu.Unlock()
	if idx >= len(f.Statuses) {
		idx = len(f.Statuses) - 1
	}
	json.NewEncoder(w).Encode(map[string]any{
		"task_id":  r.PathValue("id"),
		"status":   f.Statuses[idx],
		"message":  f.FailMessage,
		"progress": float64(idx) / float64(len(f.Statuses)),
	})
}

func (f *CloudAPI) handleData(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	if f.Data == nil {
		http.Error(w, "no data prepared", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(f.Data)
}

func (f *CloudAPI) handleBundle(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"bundle_url": f.Server.URL + "/bundle-download"})
}
