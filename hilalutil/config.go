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

package hilalutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/hilal"
	"github.com/spatialmodel/hilal/astro"
	"github.com/spf13/cast"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("hilal: %w: %s", hilal.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// PipelineConfig returns the run configuration held by cfg. Every value
// is validated, and the returned error wraps hilal.ErrInvalidConfig if
// any is out of range.
func PipelineConfig(cfg *viper.Viper) (*hilal.Config, error) {
	region, err := checkRegion(cfg.GetString("region"))
	if err != nil {
		return nil, err
	}
	resolution, err := checkRange("resolution", cfg.Get("resolution"), hilal.MinResolution, hilal.MaxResolution)
	if err != nil {
		return nil, err
	}
	days, err := checkRange("days", cfg.Get("days"), hilal.MinDays, hilal.MaxDays)
	if err != nil {
		return nil, err
	}
	criterion, err := checkCriterion(cfg.Get("criterion"))
	if err != nil {
		return nil, err
	}
	mode, err := hilal.ParseMode(cfg.GetString("mode"))
	if err != nil {
		return nil, invalid("%v", err)
	}
	workers, err := checkRange("workers", cfg.Get("workers"), 0, 1<<16)
	if err != nil {
		return nil, err
	}
	months, err := checkRange("months", cfg.Get("months"), 1, 1<<16)
	if err != nil {
		return nil, err
	}
	start, err := startDate(cfg.GetString("date"), cfg.GetString("hijri"), time.Now())
	if err != nil {
		return nil, err
	}
	output, err := checkOutputDir(cfg.GetString("output"))
	if err != nil {
		return nil, err
	}
	boundaries, err := checkInputFile("boundaries", cfg.GetString("boundaries"))
	if err != nil {
		return nil, err
	}
	places, err := checkInputFile("places", cfg.GetString("places"))
	if err != nil {
		return nil, err
	}
	env, err := environment(cfg)
	if err != nil {
		return nil, err
	}

	c := &hilal.Config{
		Region:         region,
		Resolution:     resolution,
		Days:           days,
		Criterion:      criterion,
		Mode:           mode,
		Workers:        workers,
		Months:         months,
		Start:          start,
		OutputRoot:     output,
		Env:            env,
		BoundariesFile: boundaries,
		PlacesFile:     places,
		Overwrite:      cfg.GetBool("overwrite"),
		TempDir:        os.ExpandEnv(cfg.GetString("temp-dir")),
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkRegion returns the supported region with the given name.
func checkRegion(name string) (hilal.Region, error) {
	r, err := hilal.LookupRegion(name)
	if err != nil {
		return r, invalid("%v", err)
	}
	return r, nil
}

// checkRange converts v to an integer and ensures it is within
// [min, max].
func checkRange(name string, v interface{}, min, max int) (int, error) {
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, invalid("%s must be an integer: %v", name, err)
	}
	if i < min || i > max {
		return 0, invalid("%s %d is outside [%d, %d]", name, i, min, max)
	}
	return i, nil
}

func checkCriterion(v interface{}) (hilal.Criterion, error) {
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, invalid("criterion must be an integer: %v", err)
	}
	c, err := hilal.ParseCriterion(i)
	if err != nil {
		return 0, invalid("%v", err)
	}
	return c, nil
}

// startDate returns the reference date of the first month. A Hijri
// month (YYYY-MM) is converted to the Gregorian date of its first day.
// If neither is given the reference date is today.
func startDate(date, hijri string, now time.Time) (time.Time, error) {
	if hijri = strings.TrimSpace(hijri); hijri != "" {
		parts := strings.Split(hijri, "-")
		if len(parts) != 2 {
			return time.Time{}, invalid("hijri month %q is not in the format YYYY-MM", hijri)
		}
		y, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, invalid("hijri year in %q: %v", hijri, err)
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return time.Time{}, invalid("hijri month in %q: %v", hijri, err)
		}
		t, err := astro.HijriToGregorian(y, m, 1)
		if err != nil {
			return time.Time{}, invalid("%v", err)
		}
		return t, nil
	}
	if date = strings.TrimSpace(date); date != "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return time.Time{}, invalid("date %q is not in the format YYYY-MM-DD", date)
		}
		return t, nil
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// checkOutputDir expands environment variables in the output directory
// and creates it if it does not exist.
func checkOutputDir(dir string) (string, error) {
	dir = os.ExpandEnv(dir)
	if dir == "" {
		return "", invalid("the output directory is not set")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", invalid("creating output directory: %v", err)
	}
	return dir, nil
}

// checkInputFile expands environment variables in an optional input file
// path and makes sure the file exists.
func checkInputFile(name, path string) (string, error) {
	path = os.ExpandEnv(path)
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", invalid("%s file: %v", name, err)
	}
	return path, nil
}

func environment(cfg *viper.Viper) (hilal.Environment, error) {
	var e hilal.Environment
	for _, v := range []struct {
		name string
		dst  *float64
	}{
		{"utc-offset", &e.UTCOffset},
		{"elevation", &e.Elevation},
		{"temperature", &e.Temperature},
		{"pressure", &e.Pressure},
	} {
		f, err := cast.ToFloat64E(cfg.Get(v.name))
		if err != nil {
			return e, invalid("%s must be a number: %v", v.name, err)
		}
		*v.dst = f
	}
	if e.UTCOffset < -12 || e.UTCOffset > 14 {
		return e, invalid("utc-offset %g is outside [-12, 14]", e.UTCOffset)
	}
	if e.Pressure <= 0 {
		return e, invalid("pressure must be positive; got %g", e.Pressure)
	}
	return e, nil
}

// checkLogFile returns the file the progress log should be copied to,
// or "" if it should not be saved.
func checkLogFile(save bool, logFile string) string {
	if logFile != "" {
		return os.ExpandEnv(logFile)
	}
	if !save {
		return ""
	}
	return filepath.Join("mapper_logs", "mapper_"+time.Now().Format("2006-01-02_150405")+".log")
}
