package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// Task states reported by the remote API.
const (
	statusQueued  = "queued"
	statusRunning = "running"
	statusSuccess = "success"
	statusError   = "error"
)

type taskStatus struct {
	TaskID   string  `json:"task_id"`
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

type bundleInfo struct {
	URL string    `json:"bundle_url,omitempty"`
	S3  *s3Bundle `json:"bundle_s3,omitempty"`
}

type s3Bundle struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Object    string `json:"object"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Secure    bool   `json:"secure"`
}

// submit posts a task document and returns the assigned task id.
func (b *Backend) submit(ctx context.Context, doc *taskDoc) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", &solver.SubmissionError{Solver: Name, Detail: "encoding task", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", &solver.SubmissionError{Solver: Name, Detail: "building submit request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", b.APIKey)

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return "", &solver.RemoteError{Detail: "submitting task", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &solver.RemoteError{Detail: "credentials rejected: " + resp.Status}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired:
		return "", &solver.RemoteError{Detail: "job quota exhausted: " + resp.Status}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", &solver.SubmissionError{Solver: Name,
			Detail: fmt.Sprintf("task rejected: %s: %s", resp.Status, snippet(resp.Body))}
	case resp.StatusCode >= 500:
		return "", &solver.RemoteError{Detail: "server error on submit: " + resp.Status}
	}

	var status taskStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", &solver.RemoteError{Detail: "decoding submit response", Err: err}
	}
	if status.TaskID == "" {
		return "", &solver.RemoteError{Detail: "submit response carried no task id"}
	}
	return status.TaskID, nil
}

// status fetches the current task state.
func (b *Backend) status(ctx context.Context, taskID string) (*taskStatus, error) {
	var st taskStatus
	if err := b.getJSON(ctx, "/tasks/"+taskID, taskID, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// data fetches the extracted mode-coefficient document of a finished task.
func (b *Backend) data(ctx context.Context, taskID string) (*result.Raw, error) {
	var raw result.Raw
	if err := b.getJSON(ctx, "/tasks/"+taskID+"/data", taskID, &raw); err != nil {
		return nil, err
	}
	raw.Schema = result.SchemaCloudRaw
	raw.Solver = Name
	raw.TaskID = taskID
	return &raw, nil
}

// bundle fetches the location of a finished task's result bundle.
func (b *Backend) bundle(ctx context.Context, taskID string) (*bundleInfo, error) {
	var info bundleInfo
	if err := b.getJSON(ctx, "/tasks/"+taskID+"/bundle", taskID, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (b *Backend) getJSON(ctx context.Context, path, taskID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		return &solver.RemoteError{Detail: "building request", TaskID: taskID, Err: err}
	}
	req.Header.Set("X-Api-Key", b.APIKey)

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return &solver.RemoteError{Detail: "GET " + path, TaskID: taskID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &solver.RemoteError{TaskID: taskID,
			Detail: fmt.Sprintf("GET %s: %s: %s", path, resp.Status, snippet(resp.Body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &solver.RemoteError{Detail: "decoding " + path, TaskID: taskID, Err: err}
	}
	return nil
}

func snippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 200))
	return string(bytes.TrimSpace(data))
}
