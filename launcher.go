/*
Copyright © 2024 the Hilal authors.
This file is part of Hilal.

Hilal is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hilal is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hilal.  If not, see <http://www.gnu.org/licenses/>.
*/

package hilal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrWorkerFailed is returned when at least one compute worker of a
// month did not complete.
var ErrWorkerFailed = errors.New("visibility worker failed")

// A Launcher runs compute and render tasks, each in isolation from the
// orchestrating process.
type Launcher interface {
	// Compute runs all tasks concurrently and returns once every task
	// has finished. If any task fails the others are cancelled and
	// the returned error wraps ErrWorkerFailed.
	Compute(ctx context.Context, tasks []*ComputeTask) error

	// Render draws one month's map.
	Render(ctx context.Context, task *RenderTask) error
}

// WriteTask writes a compute or render task to a TOML file.
func WriteTask(path string, task interface{}) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hilal: writing task file: %w", err)
	}
	if err := toml.NewEncoder(w).Encode(task); err != nil {
		w.Close()
		return fmt.Errorf("hilal: encoding task file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("hilal: writing task file: %w", err)
	}
	return nil
}

// ReadComputeTask reads a compute task written by WriteTask.
func ReadComputeTask(path string) (*ComputeTask, error) {
	t := new(ComputeTask)
	if _, err := toml.DecodeFile(path, t); err != nil {
		return nil, fmt.Errorf("hilal: reading compute task %s: %w", path, err)
	}
	t.Conjunction = t.Conjunction.UTC()
	return t, nil
}

// ReadRenderTask reads a render task written by WriteTask.
func ReadRenderTask(path string) (*RenderTask, error) {
	t := new(RenderTask)
	if _, err := toml.DecodeFile(path, t); err != nil {
		return nil, fmt.Errorf("hilal: reading render task %s: %w", path, err)
	}
	t.Conjunction = t.Conjunction.UTC()
	return t, nil
}

// ProcessLauncher runs each task in a child process of Exe:
// "Exe Args... worker --task=FILE" for compute tasks and
// "Exe Args... render --task=FILE" for render tasks.
type ProcessLauncher struct {
	Exe  string
	Args []string

	// TaskDir is where task files are written. If empty, the system
	// temporary directory is used.
	TaskDir string

	// Stdout and Stderr receive the output of the child processes.
	// If nil, they are inherited from the current process.
	Stdout, Stderr io.Writer

	Log logrus.FieldLogger
}

// NewProcessLauncher returns a launcher that re-executes the running
// binary.
func NewProcessLauncher(log logrus.FieldLogger) (*ProcessLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("hilal: locating executable: %w", err)
	}
	return &ProcessLauncher{Exe: exe, Log: log}, nil
}

func (l *ProcessLauncher) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

func (l *ProcessLauncher) taskFile(kind string, task interface{}) (string, error) {
	dir := l.TaskDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("hilal_%s_%s.toml", kind, uuid.New()))
	return path, WriteTask(path, task)
}

// Compute implements Launcher.
func (l *ProcessLauncher) Compute(ctx context.Context, tasks []*ComputeTask) error {
	files := make([]string, len(tasks))
	defer func() {
		for _, f := range files {
			if f != "" {
				os.Remove(f)
			}
		}
	}()
	for i, t := range tasks {
		f, err := l.taskFile("worker", t)
		if err != nil {
			return err
		}
		files[i] = f
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			if err := l.run(ctx, "worker", files[i]); err != nil {
				return fmt.Errorf("%v: %v", t.Chunk, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("hilal: %w: %v", ErrWorkerFailed, err)
	}
	return nil
}

// Render implements Launcher.
func (l *ProcessLauncher) Render(ctx context.Context, task *RenderTask) error {
	f, err := l.taskFile("render", task)
	if err != nil {
		return err
	}
	defer os.Remove(f)
	if err := l.run(ctx, "render", f); err != nil {
		return fmt.Errorf("hilal: rendering %s: %v", task.OutputFile, err)
	}
	return nil
}

// run starts a child process for the given subcommand and waits for it
// to exit. Failures to start the process are retried.
func (l *ProcessLauncher) run(ctx context.Context, command, taskFile string) error {
	args := append(append([]string{}, l.Args...), command, "--task="+taskFile)
	var cmd *exec.Cmd
	err := backoff.RetryNotify(
		func() error {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			cmd = exec.CommandContext(ctx, l.Exe, args...)
			cmd.Stdout, cmd.Stderr = l.Stdout, l.Stderr
			if cmd.Stdout == nil {
				cmd.Stdout = os.Stdout
			}
			if cmd.Stderr == nil {
				cmd.Stderr = os.Stderr
			}
			return cmd.Start()
		},
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3),
		func(err error, d time.Duration) {
			l.log().WithField("command", command).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return fmt.Errorf("starting %s process: %v", command, err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s process: %v", command, err)
	}
	return nil
}

// InProcessLauncher runs tasks as goroutines of the current process.
// It is used for single-chunk runs and in tests.
type InProcessLauncher struct {
	Oracle Oracle
}

// Compute implements Launcher.
func (l InProcessLauncher) Compute(ctx context.Context, tasks []*ComputeTask) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t.Run(ctx, l.Oracle) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("hilal: %w: %v", ErrWorkerFailed, err)
	}
	return nil
}

// Render implements Launcher.
func (l InProcessLauncher) Render(ctx context.Context, task *RenderTask) error {
	return task.Run(ctx)
}
