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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func TestTaskFiles(t *testing.T) {
	dir := t.TempDir()
	iran, err := LookupRegion("IRAN")
	if err != nil {
		t.Fatal(err)
	}
	table, err := BuildTable(Yallop)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStoreSpec(dir, 3, 2, 2, CategoryMode)

	compute := &ComputeTask{
		Chunk:       Chunk{Index: 1, StartRow: 1, Rows: 2},
		Lats:        []float64{24.5, 1.0 / 3},
		Lons:        []float64{43.5, 63.5},
		Conjunction: testConjunction,
		Days:        2,
		Criterion:   Yallop,
		Env:         Environment{UTCOffset: 3.5, Elevation: 1200, Temperature: 20, Pressure: 101.325},
		Mode:        CategoryMode,
		Categories:  table.Categories(),
		Store:       store,
	}
	path := filepath.Join(dir, "compute.toml")
	if err := WriteTask(path, compute); err != nil {
		t.Fatal(err)
	}
	gotCompute, err := ReadComputeTask(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(gotCompute, compute); len(diff) > 0 {
		t.Errorf("compute task changed in the file: %v", diff)
	}

	render := &RenderTask{
		Store:          store,
		Lons:           []float64{43.5, 63.5},
		Lats:           []float64{24.5, 32.25, 40},
		Region:         iran,
		BoundariesFile: "borders.shp",
		Criterion:      Yallop,
		Mode:           CategoryMode,
		Categories:     table.Categories(),
		Conjunction:    testConjunction,
		MonthName:      "Ramadan",
		HijriYear:      1445,
		Days:           2,
		OutputFile:     filepath.Join(dir, "Iran", "1445", "map.jpg"),
	}
	path = filepath.Join(dir, "render.toml")
	if err := WriteTask(path, render); err != nil {
		t.Fatal(err)
	}
	gotRender, err := ReadRenderTask(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(gotRender, render); len(diff) > 0 {
		t.Errorf("render task changed in the file: %v", diff)
	}

	if _, err := ReadComputeTask(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("read a missing task file")
	}
}

// TestHelperProcess is not a real test. It stands in for the hilal
// executable when the launcher starts child processes.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("HILAL_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "helper process: unexpected arguments %q\n", os.Args)
		os.Exit(2)
	}
	if os.Getenv("HILAL_HELPER_FAIL") == "1" {
		fmt.Fprintln(os.Stderr, "helper process: failing as requested")
		os.Exit(1)
	}
	command, file := args[1], args[2][len("--task="):]
	var err error
	switch command {
	case "worker":
		var task *ComputeTask
		if task, err = ReadComputeTask(file); err == nil {
			err = task.Run(context.Background(), new(fakeOracle))
		}
	case "render":
		var task *RenderTask
		if task, err = ReadRenderTask(file); err == nil {
			err = task.Run(context.Background())
		}
	default:
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func helperLauncher(t *testing.T) *ProcessLauncher {
	t.Setenv("HILAL_HELPER_PROCESS", "1")
	return &ProcessLauncher{
		Exe:     os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		TaskDir: t.TempDir(),
		Stdout:  io.Discard,
		Stderr:  os.Stderr,
	}
}

func computeTasks(t *testing.T, k int) ([]*ComputeTask, StoreSpec) {
	lon, lat, err := BuildGrid(Bounds{MinX: -30, MaxX: 30, MinY: -60, MaxY: 60}, 9)
	if err != nil {
		t.Fatal(err)
	}
	table, err := BuildTable(Odeh)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStoreSpec(t.TempDir(), len(lat), len(lon), 3, CategoryMode)
	if err := CreateStore(s); err != nil {
		t.Fatal(err)
	}
	var tasks []*ComputeTask
	for _, ch := range splitRows(len(lat), k) {
		tasks = append(tasks, &ComputeTask{
			Chunk: ch, Lats: ch.Lats(lat), Lons: lon,
			Conjunction: testConjunction, Days: 3, Criterion: Odeh,
			Env: DefaultEnvironment(), Mode: CategoryMode,
			Categories: table.Categories(), Store: s,
		})
	}
	return tasks, s
}

func readStore(t *testing.T, s StoreSpec) []float64 {
	g, err := OpenReadOnly(s)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	a, err := g.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return a.Elements
}

func TestProcessLauncher(t *testing.T) {
	l := helperLauncher(t)
	tasks, s := computeTasks(t, 3)
	if err := l.Compute(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}
	want := computeGrid(t, new(fakeOracle), CategoryMode, Odeh, 1)
	if got := readStore(t, s); !reflect.DeepEqual(got, want.Elements) {
		t.Errorf("child processes computed a different grid: %v", pretty.Diff(got, want.Elements))
	}
	files, err := filepath.Glob(filepath.Join(l.TaskDir, "*.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("task files left behind: %v", files)
	}

	iran, err := LookupRegion("IRAN")
	if err != nil {
		t.Fatal(err)
	}
	render := renderTask(t, new(fakeOracle), iran, CategoryMode, Odeh)
	if err := l.Render(context.Background(), render); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(render.OutputFile); err != nil {
		t.Errorf("child process did not write the map: %v", err)
	}
}

func TestProcessLauncherFailure(t *testing.T) {
	l := helperLauncher(t)
	t.Setenv("HILAL_HELPER_FAIL", "1")
	tasks, s := computeTasks(t, 2)
	err := l.Compute(context.Background(), tasks)
	if !errors.Is(err, ErrWorkerFailed) {
		t.Errorf("error = %v; want ErrWorkerFailed", err)
	}
	for _, v := range readStore(t, s) {
		if v != 0 {
			t.Fatal("failed workers wrote to the store")
		}
	}

	l.Exe = filepath.Join(t.TempDir(), "missing")
	if err := l.Compute(context.Background(), tasks); !errors.Is(err, ErrWorkerFailed) {
		t.Errorf("missing executable: error = %v; want ErrWorkerFailed", err)
	}
}

func TestInProcessLauncher(t *testing.T) {
	tasks, s := computeTasks(t, 4)
	l := InProcessLauncher{Oracle: new(fakeOracle)}
	if err := l.Compute(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}
	want := computeGrid(t, new(fakeOracle), CategoryMode, Odeh, 1)
	if got := readStore(t, s); !reflect.DeepEqual(got, want.Elements) {
		t.Error("in-process launcher computed a different grid")
	}

	l.Oracle = &fakeOracle{fail: errOracle}
	if err := l.Compute(context.Background(), tasks); !errors.Is(err, ErrWorkerFailed) {
		t.Errorf("error = %v; want ErrWorkerFailed", err)
	}
}
