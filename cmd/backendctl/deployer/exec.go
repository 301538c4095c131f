// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/epam/backendctl/cmd/backendctl/config"
)

// keep enough of stderr to classify the failure
const maxCapturedStderr = 64 * 1024

type ExecError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *ExecError) Error() string {
	verb := e.Command
	if len(e.Args) > 1 {
		verb = fmt.Sprintf("%s %s %s", e.Command, e.Args[0], e.Args[1])
	} else if len(e.Args) == 1 {
		verb = fmt.Sprintf("%s %s", e.Command, e.Args[0])
	}
	msg := fmt.Sprintf("`%s` failed: %v", verb, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, stderr)
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ProcessExecutor runs child processes with output streamed to the terminal.
type ProcessExecutor struct {
	Dir string
	// ExtraEnv is merged over the filtered OS environment.
	ExtraEnv  []string
	PassStdin bool
	Stdout    io.Writer
	Stderr    io.Writer
}

func goWait(routine func()) chan string {
	ch := make(chan string)
	wrapper := func() {
		routine()
		ch <- "done"
	}
	go wrapper()
	return ch
}

func (e *ProcessExecutor) Execute(ctx context.Context, command string, args []string) error {
	bin, err := exec.LookPath(command)
	if err != nil {
		return &ExecError{Command: command, Args: args, Err: fmt.Errorf("Unable to find `%s` in PATH: %w", command, err)}
	}
	osEnv, err := initOsEnv(config.OsEnvironmentMode)
	if err != nil {
		return err
	}

	impl := exec.CommandContext(ctx, bin, args...)
	impl.Dir = e.Dir
	impl.Env = mergeOsEnviron(osEnv, e.ExtraEnv)
	if e.PassStdin {
		impl.Stdin = os.Stdin
	}

	stderrImpl, err := impl.StderrPipe()
	if err != nil {
		return fmt.Errorf("Unable to obtain sub-process stderr pipe: %v", err)
	}
	stdoutImpl, err := impl.StdoutPipe()
	if err != nil {
		return fmt.Errorf("Unable to obtain sub-process stdout pipe: %v", err)
	}

	var stdout io.Writer = os.Stdout
	if e.Stdout != nil {
		stdout = e.Stdout
	}
	var stderr io.Writer = os.Stderr
	if e.Stderr != nil {
		stderr = e.Stderr
	}
	stderrBuffer := &tailBuffer{limit: maxCapturedStderr}

	if config.Verbose {
		dir := e.Dir
		if dir == "" {
			dir = "."
		}
		log.Printf("--- Dir: %s", dir)
		log.Printf("--- %s %s", command, strings.Join(args, " "))
	}

	err = impl.Start()
	if err != nil {
		return &ExecError{Command: command, Args: args, Err: err}
	}
	// Wait closes the pipes, so all reads must complete before it is called.
	stdoutComplete := goWait(func() { io.Copy(stdout, stdoutImpl) })
	stderrComplete := goWait(func() { io.Copy(io.MultiWriter(stderrBuffer, stderr), stderrImpl) })
	<-stdoutComplete
	<-stderrComplete
	err = impl.Wait()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &ExecError{Command: command, Args: args, Stderr: stderrBuffer.String(), Err: err}
	}
	return nil
}

// tailBuffer retains the last limit bytes written.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n, err := t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return n, err
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
