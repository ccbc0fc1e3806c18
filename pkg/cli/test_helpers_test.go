package cli

import (
	"bytes"
	"os"
	"testing"
)

// capture swaps *target for a pipe until the returned func is called. The
// pipe is drained concurrently so large outputs cannot block the writer.
func capture(t *testing.T, target **os.File) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	old := *target
	*target = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	return func() string {
		_ = w.Close()
		<-done
		*target = old
		return buf.String()
	}
}

func captureStdout(t *testing.T) func() string { return capture(t, &os.Stdout) }

func captureStderr(t *testing.T) func() string { return capture(t, &os.Stderr) }

// runBoth executes args and returns what was written to stdout and stderr.
func runBoth(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newTestRootCmd(t)
	cmd.SetArgs(args)
	restoreOut := captureStdout(t)
	restoreErr := captureStderr(t)
	err = cmd.Execute()
	stderr = restoreErr()
	stdout = restoreOut()
	return stdout, stderr, err
}
