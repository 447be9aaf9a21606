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

// Package hilalutil contains the command-line interface of Hilal.
package hilalutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/hilal"
	"github.com/spatialmodel/hilal/astro"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Hilal.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "date",
			usage: `
              date specifies the reference date in the format YYYY-MM-DD.
              The first map is made for the first new moon after this date.
              The default is today.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "hijri",
			usage: `
              hijri specifies the first month to map as an Islamic month in the
              format YYYY-MM (for example 1447-09). If set, it overrides --date.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the directory maps are saved under. Maps are
              written to <output>/<Region>/<Islamic year>/.`,
			shorthand:  "o",
			defaultVal: "maps",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "months",
			usage: `
              months specifies the number of consecutive lunar months to map.`,
			shorthand:  "m",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "region",
			usage: `
              region specifies the map extent. Run 'hilal regions' for the
              list of supported regions.`,
			shorthand:  "r",
			defaultVal: "WORLD",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "mode",
			usage: `
              mode specifies whether maps show visibility categories ("category")
              or the continuous visibility value as a gradient ("raw").`,
			defaultVal: string(hilal.CategoryMode),
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "resolution",
			usage: `
              resolution specifies the number of grid points along each axis.`,
			defaultVal: 300,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "days",
			usage: `
              days specifies the number of consecutive evenings to map, starting
              on the day of the new moon.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "criterion",
			usage: `
              criterion specifies the visibility criterion: 0 for Odeh or
              1 for Yallop.`,
			shorthand:  "c",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers specifies the number of worker processes. The default
              of 0 uses one worker per CPU.`,
			shorthand:  "w",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "save-logs",
			usage: `
              save-logs specifies whether to copy the progress log to a file.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "log-file",
			usage: `
              log-file specifies the file the progress log is copied to. Setting it
              implies --save-logs. The default is
              mapper_logs/mapper_<date>_<time>.log.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "boundaries",
			usage: `
              boundaries specifies a shapefile of country borders to draw on the maps.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "places",
			usage: `
              places specifies a shapefile of populated places. Places named in
              the region's city list are drawn on the maps.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "utc-offset",
			usage: `
              utc-offset specifies the offset of local time from UTC [hours].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "elevation",
			usage: `
              elevation specifies the observer height above sea level [m].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "temperature",
			usage: `
              temperature specifies the air temperature [°C].`,
			defaultVal: hilal.DefaultEnvironment().Temperature,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "pressure",
			usage: `
              pressure specifies the air pressure [kPa].`,
			defaultVal: hilal.DefaultEnvironment().Pressure,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "overwrite",
			usage: `
              overwrite specifies whether to recompute maps that already exist.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "temp-dir",
			usage: `
              temp-dir specifies where grid stores and task files are kept while
              a month is computed. The default is the system temporary directory.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "task",
			usage: `
              task specifies the task file written by 'hilal run'.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{workerCmd.Flags(), renderCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HILAL")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(workerCmd)
	Root.AddCommand(renderCmd)
	Root.AddCommand(regionsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hilal: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "hilal",
	Short: "New moon crescent visibility maps.",
	Long: `Hilal makes maps of where the new crescent moon can be seen on the
evenings following each new moon, according to the Odeh or Yallop
visibility criterion.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HILAL_VAR' where 'VAR' is the
name of the variable to be set, with dashes replaced by underscores.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Hilal.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Hilal v%s\n", hilal.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd maps one or more months.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Make visibility maps.",
	Long: `run makes one crescent visibility map for each requested lunar month.
Each map shows the configured number of evenings starting on the day of the
new moon. Maps that already exist are skipped unless --overwrite is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		_, err = Run(ctx, cmd.OutOrStdout(), c, checkLogFile(Cfg.GetBool("save-logs"), Cfg.GetString("log-file")), nil)
		return err
	},
	DisableAutoGenTag: true,
}

// workerCmd computes one chunk of a month's grid. It is started by
// 'hilal run' and is not normally run by hand.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Compute one chunk of a visibility grid.",
	Long:   `worker computes the visibility of the grid chunk described by --task.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := hilal.ReadComputeTask(Cfg.GetString("task"))
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		return t.Run(ctx, astro.Oracle{})
	},
	DisableAutoGenTag: true,
}

// renderCmd draws one month's map. It is started by 'hilal run'.
var renderCmd = &cobra.Command{
	Use:    "render",
	Short:  "Draw a visibility map.",
	Long:   `render draws the map described by --task from a computed grid.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := hilal.ReadRenderTask(Cfg.GetString("task"))
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		return t.Run(ctx)
	},
	DisableAutoGenTag: true,
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the supported regions.",
	Long:  "regions prints the name, extent and labeled cities of each supported region.",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range hilal.RegionNames() {
			r, _ := hilal.LookupRegion(name)
			b := r.Bounds
			cmd.Printf("%s: longitude [%g, %g], latitude [%g, %g]\n", r.Name, b.MinX, b.MaxX, b.MinY, b.MaxY)
			cmd.Printf("    %s\n", strings.Join(r.Cities, ", "))
		}
	},
	DisableAutoGenTag: true,
}
