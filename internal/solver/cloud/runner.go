package cloud

import (
	"context"
	"path/filepath"
	"time"

	"github.com/photonlab/fdtdbench/internal/ctxlog"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// Run implements solver.Backend. The task payload is always persisted; with
// the run flag unset nothing is submitted. Otherwise the task is submitted,
// polled to completion, and its result bundle downloaded next to the task
// file.
func (b *Backend) Run(ctx context.Context, setup *solver.Setup, outDir string) (*result.Raw, error) {
	logger := ctxlog.FromContext(ctx)

	if setup.Solver != Name {
		return nil, &solver.SubmissionError{Solver: Name,
			Detail: "setup was built for solver " + setup.Solver}
	}
	if setup.Mesh.CloudStepsPerWvl <= 0 {
		return nil, &solver.SubmissionError{Solver: Name, Detail: "setup has no native mesh density"}
	}

	doc := taskFromSetup(setup)
	taskPath := filepath.Join(outDir, setup.Device+"_task.json")
	if err := writeTask(taskPath, doc); err != nil {
		return nil, &solver.SubmissionError{Solver: Name, Detail: "writing task file", Err: err}
	}
	logger.Info("task payload written", "path", taskPath)

	if !setup.RunFlag {
		logger.Info("dry configuration: task not submitted")
		return nil, nil
	}

	taskID, err := b.submit(ctx, doc)
	if err != nil {
		return nil, err
	}
	logger.Info("task submitted", "task_id", taskID)

	// Live progress stream is advisory; its failures never fail the run.
	stopProgress := b.streamProgress(ctx, taskID)
	defer stopProgress()

	if err := b.poll(ctx, taskID); err != nil {
		return nil, err
	}

	raw, err := b.data(ctx, taskID)
	if err != nil {
		return nil, err
	}
	raw.Device = setup.Device

	bundlePath := filepath.Join(outDir, setup.Device+"_results.hdf5")
	info, err := b.bundle(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := b.download(ctx, info, taskID, bundlePath); err != nil {
		return nil, err
	}
	logger.Info("result bundle downloaded", "path", bundlePath)
	raw.BundlePath = bundlePath
	return raw, nil
}

// poll blocks until the task succeeds, fails, or the poll deadline passes.
// A deadline surfaces as *solver.RemoteError carrying the task id so a
// caller can resume polling; no automatic retry happens here.
func (b *Backend) poll(ctx context.Context, taskID string) error {
	logger := ctxlog.FromContext(ctx)
	deadline := time.Now().Add(b.PollTimeout)
	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()

	for {
		st, err := b.status(ctx, taskID)
		if err != nil {
			return err
		}
		switch st.Status {
		case statusSuccess:
			return nil
		case statusError:
			return &solver.ExecutionError{Solver: Name,
				Detail: "task " + taskID + " failed remotely: " + st.Message}
		default:
			logger.Debug("task pending", "task_id", taskID, "status", st.Status, "progress", st.Progress)
		}

		if time.Now().After(deadline) {
			return &solver.RemoteError{TaskID: taskID,
				Detail: "poll timeout after " + b.PollTimeout.String()}
		}
		select {
		case <-ctx.Done():
			return &solver.RemoteError{TaskID: taskID, Detail: "polling interrupted", Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}
