// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/inp"
	"github.com/peekwez/tmr/par"
	"github.com/peekwez/tmr/topo"
	"github.com/spf13/cobra"
)

var (
	logLevel string  // log level
	verbose  bool    // show messages
	omegaMin float64 // min natural frequency for the frequency constraint table
	showInfo bool    // print the data read from a topology file
)

var rootCmd = &cobra.Command{
	Use:   "tmr",
	Short: "Multiresolution topology optimization",
	Long: `tmr builds multiresolution topology optimization problems on adaptive forests
and validates optimizer option files and topology (.topo) input files.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List optimizer options and their defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		io.Pf("%s", inp.NewOptRegistry().Table())
		if omegaMin > 0 {
			io.Pf("\nfrequency constraint (omega_min = %g Hz)\n", omegaMin)
			io.Pf("%s", topo.NewFreqRegistry(omegaMin).Table())
		}
		return nil
	},
}

var checkOptsCmd = &cobra.Command{
	Use:   "check-opts file.json",
	Short: "Validate an optimizer options file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := inp.ReadOpts(args[0])
		if err != nil {
			return err
		}
		slog.Info("options are valid", "file", args[0], "optimizer", o.Strategy.String(),
			"qn_type", o.QnType.String(), "maxiter", o.MaxIter, "tol", o.Tol)
		return nil
	},
}

var checkTopoCmd = &cobra.Command{
	Use:   "check-topo file.topo",
	Short: "Validate a topology optimization input file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := inp.ReadTopo(args[0])
		if err != nil {
			return err
		}
		prms, err := topo.NewParams(d, verbose)
		if err != nil {
			return err
		}
		if d.Freq != nil {
			reg := topo.NewFreqRegistry(d.Freq.OmegaMin)
			if err = reg.WriteAll(d.Freq.Options); err != nil {
				return err
			}
		}
		slog.Info("topology file is valid", "key", d.Key, "levels", prms.Nlevels, "filter", prms.Filter.Name(),
			"loads", len(d.Loads), "cycles", d.Refine.Ncycles, "optimizer", d.Opts.Strategy.String())
		if showInfo {
			if err = d.GetInfo(os.Stdout); err != nil {
				return err
			}
			io.Pf("\n")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show messages")
	optionsCmd.Flags().Float64Var(&omegaMin, "freq", 0, "Also list the frequency constraint parameters for this min frequency [Hz]")
	checkTopoCmd.Flags().BoolVar(&showInfo, "show", false, "Print the data read from the file")
	rootCmd.AddCommand(optionsCmd, checkOptsCmd, checkTopoCmd)
}

func main() {

	// catch errors
	comm := par.World()
	defer func() {
		if err := recover(); err != nil {
			if comm.Rank() == 0 {
				io.PfRed("\nERROR: %v", err)
				io.Pf("See location of error below:\n")
				chk.Verbose = true
				for i := 5; i > 3; i-- {
					chk.CallerInfo(i)
				}
			}
		}
		par.Stop()
	}()
	par.Start()
	comm = par.World()

	// run command
	if err := rootCmd.Execute(); err != nil {
		if comm.Rank() == 0 {
			slog.Error("command failed", "err", err)
		}
		par.Stop()
		os.Exit(1)
	}
}
