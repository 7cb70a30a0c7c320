// Package runner spawns wrapped tools and streams their output through a
// compactor while keeping a raw copy for replay.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/quelsh/winnow/internal/adapter"
)

// ErrAbnormalTermination marks a child that died without an exit code,
// typically from a signal or a cancelled context.
var ErrAbnormalTermination = errors.New("wrapped command terminated abnormally")

// AbnormalExitCode is what the wrapper itself exits with when the child
// terminated abnormally. 125 sits outside the range tools commonly use.
const AbnormalExitCode = 125

// maxRawBytes caps the raw replay capture.
const maxRawBytes = 8 << 20

// maxLineBytes caps how much of a single line is buffered before it is
// fed to the compactor as its own chunk. Splitting oversized lines keeps
// the pipe drained, so a child spewing one enormous line cannot block.
const maxLineBytes = 4 << 20

// Invocation names the process to spawn. Args excludes the program.
type Invocation struct {
	Program string
	Args    []string
}

// Outcome is everything one run produced.
type Outcome struct {
	Result   adapter.Result
	ExitCode int
	// Raw is the merged raw output, possibly truncated.
	Raw      string
	Duration time.Duration
	Aborted  bool
}

// Run executes the invocation and feeds every output line through the
// compactor. The child inherits stdin so interactive prompts still work.
// On abnormal termination the returned Outcome carries the partial
// result and the error is ErrAbnormalTermination.
func Run(ctx context.Context, inv Invocation, c adapter.Compactor) (*Outcome, error) {
	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Stdin = os.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", inv.Program, err)
	}

	var (
		mu  sync.Mutex
		raw []byte
		wg  sync.WaitGroup
	)
	consume := func(r io.Reader, src adapter.Stream) {
		defer wg.Done()
		emit := func(line []byte) {
			mu.Lock()
			if len(raw) < maxRawBytes {
				raw = append(raw, line...)
				raw = append(raw, '\n')
				if len(raw) >= maxRawBytes {
					raw = append(raw, "... (raw output truncated)\n"...)
				}
			}
			c.Feed(ansi.Strip(string(line)), src)
			mu.Unlock()
		}

		// The reader must consume everything the child writes, however
		// long the lines are, or the child blocks on a full pipe and
		// Run never returns.
		br := bufio.NewReaderSize(r, 64*1024)
		var line []byte
		for {
			chunk, err := br.ReadSlice('\n')
			line = append(line, chunk...)
			if err == bufio.ErrBufferFull {
				if len(line) >= maxLineBytes {
					emit(line)
					line = line[:0]
				}
				continue
			}
			if n := len(line); n > 0 && line[n-1] == '\n' {
				line = line[:n-1]
				if n := len(line); n > 0 && line[n-1] == '\r' {
					line = line[:n-1]
				}
			}
			if len(line) > 0 || err == nil {
				emit(line)
				line = line[:0]
			}
			if err != nil {
				return
			}
		}
	}

	wg.Add(2)
	go consume(stdout, adapter.Stdout)
	go consume(stderr, adapter.Stderr)
	wg.Wait()

	waitErr := cmd.Wait()
	out := &Outcome{
		Raw:      string(raw),
		Duration: time.Since(start),
	}

	switch {
	case waitErr == nil:
		out.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.Exited() {
			out.ExitCode = exitErr.ExitCode()
		} else {
			// Killed by signal or context cancellation; no exit code
			// to propagate.
			out.Aborted = true
			out.ExitCode = AbnormalExitCode
		}
	}

	out.Result = c.Finalize(out.ExitCode, out.Aborted)
	if out.Aborted {
		return out, ErrAbnormalTermination
	}
	return out, nil
}
