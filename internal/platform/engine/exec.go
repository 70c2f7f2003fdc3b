package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ExecEngine runs a platform's crawler as an external command, passing
// the job's parameter bundle on the command line. This keeps the actual
// crawling logic outside this process behind the Start contract.
type ExecEngine struct {
	binaryPath string
}

func NewExecEngine(binaryPath string) *ExecEngine {
	return &ExecEngine{binaryPath: binaryPath}
}

func (e *ExecEngine) Start(ctx context.Context, p Params) error {
	args := []string{
		"--platform", string(p.Platform),
		"--keywords", p.Keywords,
		"--type", string(p.Mode),
		"--max_notes", strconv.Itoa(p.MaxNotes),
		"--get_comment", strconv.FormatBool(p.GetComments),
	}
	cmd := exec.CommandContext(ctx, e.binaryPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("crawler failed: %w: %s", err, stderr.String())
		}
		return fmt.Errorf("crawler failed: %w", err)
	}
	return nil
}
