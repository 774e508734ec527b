package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/photonlab/fdtdbench/internal/ctxlog"
	"github.com/photonlab/fdtdbench/internal/fsutil"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// execute invokes the local engine on a project file and reads back the
// sweep output the engine writes next to it. The call blocks for the whole
// engine run; cancellation only happens through the context.
func (b *Backend) execute(ctx context.Context, setup *solver.Setup, projectPath string) (*result.Raw, error) {
	logger := ctxlog.FromContext(ctx)
	sweepPath := strings.TrimSuffix(projectPath, "_FDTD.fsp") + "_sweep.json"

	cmd := exec.CommandContext(ctx, b.EnginePath, "-o", sweepPath, projectPath)
	logger.Info("invoking local solver engine", "engine", b.EnginePath, "project", projectPath)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &solver.ExecutionError{Solver: Name,
			Detail: fmt.Sprintf("engine exited abnormally: %s", firstLine(out)), Err: err}
	}
	logger.Info("engine finished", "sweep", sweepPath)

	if !fsutil.Exists(sweepPath) {
		return nil, &solver.ExecutionError{Solver: Name,
			Detail: fmt.Sprintf("engine produced no sweep output at %s", sweepPath)}
	}
	raw, err := result.ReadRaw(sweepPath)
	if err != nil {
		return nil, &solver.ExecutionError{Solver: Name, Detail: "reading sweep output", Err: err}
	}
	raw.Schema = result.SchemaDesktopRaw
	raw.Solver = Name
	raw.Device = setup.Device
	return raw, nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no engine output"
	}
	return s
}
