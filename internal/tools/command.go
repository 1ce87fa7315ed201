package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// commandTimeout bounds every run_command execution. The process is killed
// on expiry.
const commandTimeout = 30 * time.Second

// runCommand executes a shell command with the workspace as its working
// directory. Timeouts, non-zero exits, and spawn failures are all reported
// as textual results rather than errors, so the session keeps going.
func (r *Registry) runCommand(ctx context.Context, command string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "bash", "-c", command)
	cmd.Dir = r.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: Command timed out after %d seconds", int(commandTimeout.Seconds())), nil
	}
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return fmt.Sprintf("Error executing command: %v", err), nil
		}
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\nSTDERR:\n" + stderr.String()
	}
	if output == "" {
		return "Command executed successfully (no output)", nil
	}
	return output, nil
}
