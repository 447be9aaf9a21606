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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/hilal"
	"github.com/spatialmodel/hilal/astro"
)

// Run makes the maps configured by c. Progress is logged to out and,
// if logFile is not empty, copied to logFile. If launcher is nil, each
// worker and each render runs in a child process of the current
// executable.
func Run(ctx context.Context, out io.Writer, c *hilal.Config, logFile string, launcher hilal.Launcher) (*hilal.Summary, error) {
	startTime := time.Now()

	w := out
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
			return nil, fmt.Errorf("hilal: problem creating log directory: %v", err)
		}
		f, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("hilal: problem creating log file: %v", err)
		}
		defer f.Close()
		w = io.MultiWriter(out, f)
	}
	log := logrus.New()
	log.Out = w
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: logFile != ""}

	if launcher == nil {
		l, err := hilal.NewProcessLauncher(log)
		if err != nil {
			return nil, err
		}
		l.TaskDir = c.TempDir
		l.Stdout, l.Stderr = w, w
		launcher = l
	}

	p := &hilal.Pipeline{
		Config:   *c,
		Oracle:   astro.Oracle{},
		Launcher: launcher,
		Log:      log,
	}
	s, err := p.Run(ctx)
	if s != nil {
		for _, m := range s.Months {
			fields := logrus.Fields{
				"conjunction": m.Conjunction.Format("2006-01-02 15:04:05"),
				"file":        m.OutputFile,
			}
			switch {
			case m.Err != nil:
				log.WithFields(fields).WithError(m.Err).Warn("failed")
			case m.Skipped:
				log.WithFields(fields).Info("skipped")
			default:
				log.WithFields(fields).WithField("time", m.Timings["total"]).Info("done")
			}
		}
	}
	log.WithField("time", time.Since(startTime)).Info("hilal run finished")
	return s, err
}
