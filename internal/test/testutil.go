// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package testutil contains helpers shared by the tests of typedmq packages.
package testutil

import (
	"bytes"
	"context"
	"crypto/rand"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// QueueName returns a queue name, which is unique across test runs and processes.
// Parallel tests, and test binaries of different packages, never collide.
func QueueName(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return "/typedmq-" + prefix + "-" + strings.ToLower(id.String())
}

// ProgramResult is the outcome of a helper program started with 'go run'.
type ProgramResult struct {
	Output string
	Err    error
}

// Program is a running helper program.
type Program struct {
	cmd    *exec.Cmd
	output *bytes.Buffer
	done   chan ProgramResult
}

// StartProgram starts 'go run args...'. The program is killed, when ctx is done.
func StartProgram(ctx context.Context, args ...string) (*Program, error) {
	output := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, "go", append([]string{"run"}, args...)...)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start helper program")
	}
	p := &Program{cmd: cmd, output: output, done: make(chan ProgramResult, 1)}
	go func() {
		err := cmd.Wait()
		if err != nil && ctx.Err() != nil {
			err = errors.Wrap(ctx.Err(), "helper program was killed")
		} else if err != nil {
			err = errors.Wrap(err, "helper program failed")
		}
		p.done <- ProgramResult{Output: output.String(), Err: err}
	}()
	return p, nil
}

// Wait returns the result, once the program has exited.
func (p *Program) Wait() ProgramResult {
	return <-p.done
}

// RunProgram starts a helper program and waits for it.
func RunProgram(ctx context.Context, args ...string) ProgramResult {
	p, err := StartProgram(ctx, args...)
	if err != nil {
		return ProgramResult{Err: err}
	}
	return p.Wait()
}
