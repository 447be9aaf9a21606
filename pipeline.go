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

// Package hilal produces new-moon crescent visibility maps. For each
// lunar month it evaluates visibility over a latitude/longitude grid
// in parallel worker processes that share a file-backed grid store,
// and then renders the grid as a single composite map image.
package hilal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Version is the version of this program.
const Version = "0.1.0"

// ErrInvalidConfig is returned when a run is configured with invalid
// values. No work is dispatched for an invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Limits of the configurable values.
const (
	MinResolution = 2
	MaxResolution = 1000
	MinDays       = 1
	MaxDays       = 7
)

// Config holds the settings of a run.
type Config struct {
	Region Region

	// Resolution is the number of grid points along each axis.
	Resolution int

	// Days is the number of consecutive evenings mapped per month.
	Days int

	Criterion Criterion
	Mode      Mode

	// Workers is the requested number of worker processes.
	// Zero means one per CPU.
	Workers int

	// Months is the number of consecutive lunar months to map,
	// starting at Start.
	Months int
	Start  time.Time

	// OutputRoot is the directory maps are written under.
	OutputRoot string

	Env Environment

	// BoundariesFile and PlacesFile are optional shapefiles drawn on
	// the maps.
	BoundariesFile, PlacesFile string

	// Overwrite causes maps that already exist to be recomputed.
	Overwrite bool

	// TempDir holds grid stores and task files. If empty, the system
	// temporary directory is used.
	TempDir string
}

// Check returns an error wrapping ErrInvalidConfig if c is not valid.
func (c *Config) Check() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("hilal: %w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.Region.Name == "" {
		return invalid("region is not set")
	}
	if err := c.Region.Bounds.Check(); err != nil {
		return invalid("region %s: %v", c.Region.Name, err)
	}
	if c.Resolution < MinResolution || c.Resolution > MaxResolution {
		return invalid("resolution %d is outside [%d, %d]", c.Resolution, MinResolution, MaxResolution)
	}
	if c.Days < MinDays || c.Days > MaxDays {
		return invalid("days %d is outside [%d, %d]", c.Days, MinDays, MaxDays)
	}
	if _, err := ParseCriterion(int(c.Criterion)); err != nil {
		return invalid("%v", err)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return invalid("%v", err)
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative; got %d", c.Workers)
	}
	if c.Months < 1 {
		return invalid("months must be at least 1; got %d", c.Months)
	}
	if c.Start.IsZero() {
		return invalid("start date is not set")
	}
	if c.OutputRoot == "" {
		return invalid("output directory is not set")
	}
	return nil
}

func (c *Config) tempDir() string {
	if c.TempDir == "" {
		return os.TempDir()
	}
	return c.TempDir
}

// Pipeline produces the maps of a run.
type Pipeline struct {
	Config

	Oracle   Oracle
	Launcher Launcher
	Log      logrus.FieldLogger
}

// MonthResult describes the outcome of one month.
type MonthResult struct {
	// Reference is the time the conjunction search started from.
	Reference   time.Time
	Conjunction time.Time

	// Hijri is the Islamic date of the conjunction, and HijriYear and
	// HijriMonth are the month the map is labeled with.
	Hijri      HijriDate
	HijriYear  int
	HijriMonth int
	MonthName  string

	OutputFile string

	// Skipped is true if an existing map was reused.
	Skipped bool

	// Chunks is the number of compute tasks the grid was split into.
	Chunks int

	// Timings holds the duration of each phase.
	Timings map[string]time.Duration

	Err error
}

// Summary is the outcome of a multi-month run.
type Summary struct {
	Months []*MonthResult
	Failed int
}

// plan holds the per-run state shared by all months.
type plan struct {
	lon, lat GridAxis
	table    *CategoryTable
	chunks   []Chunk
	index    *Index
}

func (p *Pipeline) log() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

func (p *Pipeline) newPlan() (*plan, error) {
	if err := p.Config.Check(); err != nil {
		return nil, err
	}
	if p.Oracle == nil || p.Launcher == nil {
		return nil, fmt.Errorf("hilal: %w: pipeline needs an oracle and a launcher", ErrInvalidConfig)
	}
	lon, lat, err := BuildGrid(p.Region.Bounds, p.Resolution)
	if err != nil {
		return nil, err
	}
	table, err := BuildTable(p.Criterion)
	if err != nil {
		return nil, err
	}
	chunks, err := Partition(lat, p.Workers)
	if err != nil {
		return nil, err
	}
	index, err := OpenIndex(p.OutputRoot)
	if err != nil {
		return nil, err
	}
	return &plan{lon: lon, lat: lat, table: table, chunks: chunks, index: index}, nil
}

// Run maps every month of the run. A failed month is logged and
// recorded in the summary, and the remaining months still run. Run
// returns an error if the configuration is invalid, the context is
// cancelled or every month failed.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	pl, err := p.newPlan()
	if err != nil {
		return nil, err
	}
	log := p.log().WithFields(logrus.Fields{
		"region":    p.Region.Name,
		"criterion": p.Criterion.Name(),
		"mode":      p.Mode,
	})
	log.WithFields(logrus.Fields{
		"resolution": p.Resolution,
		"days":       p.Days,
		"months":     p.Months,
		"workers":    len(pl.chunks),
	}).Info("hilal starting run")

	s := new(Summary)
	for i := 0; i < p.Months; i++ {
		ref := MonthReference(p.Start, i)
		res, err := p.runMonth(ctx, pl, ref)
		s.Months = append(s.Months, res)
		if err != nil {
			s.Failed++
			log.WithField("reference", ref.Format("2006-01-02")).WithError(err).Error("hilal month failed")
			if ctx.Err() != nil {
				break
			}
		}
	}
	if err := pl.index.Save(); err != nil {
		log.WithError(err).Error("hilal saving map index")
	}
	if err := ctx.Err(); err != nil {
		return s, err
	}
	if s.Failed == len(s.Months) {
		return s, fmt.Errorf("hilal: all %d months failed; last error: %v", s.Failed, s.Months[len(s.Months)-1].Err)
	}
	return s, nil
}

// RunMonth maps the lunar month beginning with the first conjunction
// after reference.
func (p *Pipeline) RunMonth(ctx context.Context, reference time.Time) (*MonthResult, error) {
	pl, err := p.newPlan()
	if err != nil {
		return nil, err
	}
	res, err := p.runMonth(ctx, pl, reference)
	if serr := pl.index.Save(); err == nil && serr != nil {
		err = serr
		res.Err = err
	}
	return res, err
}

func (p *Pipeline) runMonth(ctx context.Context, pl *plan, ref time.Time) (res *MonthResult, err error) {
	start := time.Now()
	res = &MonthResult{Reference: ref, Chunks: len(pl.chunks), Timings: make(map[string]time.Duration)}
	defer func() {
		res.Err = err
		res.Timings["total"] = time.Since(start)
	}()

	conj, err := p.Oracle.NextConjunction(ref)
	if err != nil {
		return res, fmt.Errorf("hilal: finding conjunction after %s: %w", ref.Format("2006-01-02"), err)
	}
	conj = conj.UTC().Truncate(time.Second)
	res.Conjunction = conj

	h, err := p.Oracle.ToHijri(conj)
	if err != nil {
		return res, fmt.Errorf("hilal: converting %s to the Islamic calendar: %w", conj.Format("2006-01-02"), err)
	}
	res.Hijri = h
	res.HijriYear, res.HijriMonth = DisplayMonth(h)
	if res.MonthName, err = p.Oracle.HijriMonthName(res.HijriMonth); err != nil {
		return res, err
	}

	dir := OutputDir(p.OutputRoot, p.Region, res.HijriYear)
	res.OutputFile = filepath.Join(dir, OutputFileName(conj, res.MonthName, res.HijriYear, p.Criterion, p.Mode))
	log := p.log().WithFields(logrus.Fields{
		"region":      p.Region.Name,
		"conjunction": conj.Format("2006-01-02 15:04:05"),
		"month":       fmt.Sprintf("%s %d", res.MonthName, res.HijriYear),
	})

	key := MonthKey(&p.Config, conj)
	if !p.Overwrite {
		if _, ok := pl.index.Lookup(key); ok {
			res.Skipped = true
			log.WithField("file", res.OutputFile).Info("hilal map exists; skipping")
			return res, nil
		}
	}

	store := NewStoreSpec(p.tempDir(), len(pl.lat), len(pl.lon), p.Days, p.Mode)
	defer func() {
		if rerr := RemoveStore(store); rerr != nil {
			log.WithError(rerr).Warn("hilal removing grid store")
		}
	}()
	if err := CreateStore(store); err != nil {
		return res, err
	}

	tasks := make([]*ComputeTask, len(pl.chunks))
	for i, c := range pl.chunks {
		tasks[i] = &ComputeTask{
			Chunk:       c,
			Lats:        c.Lats(pl.lat),
			Lons:        pl.lon,
			Conjunction: conj,
			Days:        p.Days,
			Criterion:   p.Criterion,
			Env:         p.Env,
			Mode:        p.Mode,
			Categories:  pl.table.Categories(),
			Store:       store,
		}
	}

	log.WithField("chunks", len(tasks)).Info("hilal computing visibility")
	phase := time.Now()
	if Serial(pl.chunks) {
		if err := tasks[0].Run(ctx, p.Oracle); err != nil {
			return res, fmt.Errorf("hilal: %w: %v", ErrWorkerFailed, err)
		}
	} else if err := p.Launcher.Compute(ctx, tasks); err != nil {
		return res, err
	}
	res.Timings["compute"] = time.Since(phase)

	log.Info("hilal rendering map")
	phase = time.Now()
	render := &RenderTask{
		Store:          store,
		Lons:           pl.lon,
		Lats:           pl.lat,
		Region:         p.Region,
		BoundariesFile: p.BoundariesFile,
		PlacesFile:     p.PlacesFile,
		Criterion:      p.Criterion,
		Mode:           p.Mode,
		Categories:     pl.table.Categories(),
		Conjunction:    conj,
		MonthName:      res.MonthName,
		HijriYear:      res.HijriYear,
		Days:           p.Days,
		OutputFile:     res.OutputFile,
	}
	if err := p.Launcher.Render(ctx, render); err != nil {
		return res, err
	}
	res.Timings["render"] = time.Since(phase)

	rel, err := filepath.Rel(p.OutputRoot, res.OutputFile)
	if err != nil {
		rel = res.OutputFile
	}
	pl.index.Add(IndexEntry{
		Key:         key,
		Region:      p.Region.Name,
		HijriYear:   res.HijriYear,
		HijriMonth:  res.HijriMonth,
		MonthName:   res.MonthName,
		Conjunction: conj,
		Criterion:   p.Criterion.String(),
		Mode:        p.Mode,
		Resolution:  p.Resolution,
		Days:        p.Days,
		File:        rel,
		Created:     time.Now().UTC(),
	})
	log.WithFields(logrus.Fields{
		"file":    res.OutputFile,
		"compute": res.Timings["compute"],
		"render":  res.Timings["render"],
		"total":   time.Since(start),
	}).Info("hilal month complete")
	return res, nil
}
