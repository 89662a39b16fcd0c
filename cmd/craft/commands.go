// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/analyzer"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/dto"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/macro"
	"github.com/zintix-labs/craftlab/setting"
	"github.com/zintix-labs/craftlab/solver"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func newRecipesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List recipe presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				sums, err := lab.Catalog().Summaries()
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if o.format != "text" {
					return o.encode(w, sums)
				}
				for _, s := range sums {
					mark := ""
					if s.Collectable {
						mark = " [collectable]"
					}
					printer.Fprintf(w, "%6d  %-20s rlv %-4d %7d / %7d / %3d%s\n",
						s.ID, s.Name, s.Rlv, s.Difficulty, s.Quality, s.Durability, mark)
				}
				return nil
			})
		},
	}
}

func newSolveCmd(o *rootOptions) *cobra.Command {
	cfg := setting.DefaultSolverConfig()
	var kind, cfgFile string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the preset with the table-based solver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				loaded, err := setting.LoadSolverConfig(os.DirFS(filepath.Dir(cfgFile)), filepath.Base(cfgFile))
				if err != nil {
					return err
				}
				cfg = loaded
			} else {
				cfg.Kind = solver.Kind(kind)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				s, _, err := o.status(lab)
				if err != nil {
					return err
				}
				acts, err := lab.Solve(cmd.Context(), s, cfg.Solver())
				if err != nil {
					return err
				}
				res := dto.NewActionsResponse(s, acts)
				w := cmd.OutOrStdout()
				if o.format != "text" {
					return o.encode(w, res)
				}
				writeActions(w, acts)
				writeStatus(w, res.Final)
				return writeMacro(w, acts, macro.Options{})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", string(solver.KindComposite), "solver kind: composite|quality|progress")
	f.BoolVar(&cfg.Manipulation, "manipulation", cfg.Manipulation, "allow Manipulation")
	f.BoolVar(&cfg.WasteNot, "waste-not", cfg.WasteNot, "allow Waste Not / Waste Not II")
	f.BoolVar(&cfg.Observe, "observe", cfg.Observe, "allow Observe")
	f.StringVar(&cfgFile, "solver-config", "", "solver config yaml (overrides other flags)")
	return cmd
}

func newDFSCmd(o *rootOptions) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "dfs",
		Short: "Exhaustive branch-and-bound search up to a depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return errs.NewWarn("depth must > 0")
			}
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				s, _, err := o.status(lab)
				if err != nil {
					return err
				}
				res, err := lab.Search(cmd.Context(), s, depth)
				if err != nil {
					return err
				}
				out := dto.NewDFSResponse(s, res)
				w := cmd.OutOrStdout()
				if o.format != "text" {
					return o.encode(w, out)
				}
				printer.Fprintf(w, "nodes: %d\n", res.Nodes)
				writeActions(w, res.Actions)
				writeStatus(w, out.Final)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 8, "max search depth")
	return cmd
}

func newSimCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sim <actions...>",
		Short: "Simulate an action list (all succeed, normal condition)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := parseActions(args)
			if err != nil {
				return err
			}
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				s, _, err := o.status(lab)
				if err != nil {
					return err
				}
				res := dto.NewSimulateResponse(s, acts)
				w := cmd.OutOrStdout()
				if o.format != "text" {
					return o.encode(w, res)
				}
				for _, r := range res.Rejected {
					fmt.Fprintf(w, "rejected #%d %s: %s\n", r.Pos+1, r.Action, r.Reason)
				}
				writeStatus(w, res.Status)
				return nil
			})
		},
	}
}

func newMonteCarloCmd(o *rootOptions) *cobra.Command {
	var (
		opt    analyzer.Options
		trials int
	)
	cmd := &cobra.Command{
		Use:     "montecarlo <actions...>",
		Aliases: []string{"mc"},
		Short:   "Run the action list many times with random success and conditions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := parseActions(args)
			if err != nil {
				return err
			}
			if trials < 1 {
				return errs.NewWarn("trials must > 0")
			}
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				s, p, err := o.status(lab)
				if err != nil {
					return err
				}
				opt.Title = p.Name
				opt.ShowProgress = o.format == "text"
				res, err := lab.MonteCarlo(cmd.Context(), s, acts, trials, opt, p.Refine)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if o.format != "text" {
					res.Report.Done()
					return o.encode(w, res)
				}
				res.Report.StdOut(w)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVarP(&trials, "trials", "n", 10_000, "number of trials")
	f.Int64Var(&opt.Seed, "seed", 0, "seed, 0 for random")
	f.IntVarP(&opt.Workers, "workers", "w", 1, "parallel workers")
	f.BoolVar(&opt.IgnoreErrors, "ignore-errors", false, "skip rejected actions instead of counting errors")
	f.BoolVar(&opt.Strict, "strict", false, "abort on the first rejected action")
	return cmd
}

func newScopeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scope <actions...>",
		Short: "Find the attribute range in which the action list still works",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := parseActions(args)
			if err != nil {
				return err
			}
			return o.withLab(cmd, func(lab *craftlab.Lab) error {
				s, _, err := o.status(lab)
				if err != nil {
					return err
				}
				sc, err := lab.Scope(cmd.Context(), s, acts)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if o.format != "text" {
					return o.encode(w, sc)
				}
				printer.Fprintf(w, "craftsmanship: %s ~ %s\n", bound(sc.Craftsmanship.Lo), bound(sc.Craftsmanship.Hi))
				printer.Fprintf(w, "control:       %s ~\n", bound(sc.Control))
				printer.Fprintf(w, "craft points:  %d\n", sc.CraftPoints)
				return nil
			})
		},
	}
}

func newMacroCmd(o *rootOptions) *cobra.Command {
	var (
		opts    = macro.DefaultOptions()
		section string
		notify  string
		code    string
	)
	cmd := &cobra.Command{
		Use:   "macro [actions...]",
		Short: "Render in-game macros and a share code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				acts []craft.Action
				err  error
			)
			switch {
			case code != "":
				acts, err = macro.Decode(code)
			case len(args) > 0:
				acts, err = parseActions(args)
			default:
				err = errs.NewWarn("actions or --code required")
			}
			if err != nil {
				return err
			}
			opts.Section, opts.Notify = macro.Section(section), macro.Notify(notify)
			return o.run(func() error {
				w := cmd.OutOrStdout()
				if o.format == "text" {
					return writeMacro(w, acts, opts)
				}
				lines, err := macro.Format(acts, opts)
				if err != nil {
					return err
				}
				sc, err := macro.Encode(acts)
				if err != nil {
					return err
				}
				return o.encode(w, dto.MacroResponse{Actions: acts, Macros: lines, Code: sc})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&code, "code", "", "decode a share code instead of reading actions")
	f.StringVar(&section, "section", string(opts.Section), "avg|greedy|disable")
	f.StringVar(&notify, "notify", string(opts.Notify), "auto|always|never")
	f.BoolVar(&opts.Lock, "lock", false, "prepend /mlock")
	f.IntVar(&opts.WaitInc, "wait-inc", 0, "extra wait seconds per line")
	return cmd
}

func bound(v *int) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%d", *v)
}

func writeActions(w io.Writer, acts []craft.Action) {
	names := make([]string, len(acts))
	for i, a := range acts {
		names[i] = a.Display()
	}
	fmt.Fprintf(w, "actions (%d): %s\n", len(acts), strings.Join(names, " → "))
}

func writeStatus(w io.Writer, s dto.StatusDTO) {
	printer.Fprintf(w, "progress %d/%d  quality %d/%d  durability %d/%d  cp %d  steps %d\n",
		s.Progress, s.Difficulty, s.Quality, s.MaxQuality, s.Durability, s.MaxDurability, s.CraftPoints, s.Step)
	if s.HQPercent != nil {
		fmt.Fprintf(w, "hq %d%%\n", *s.HQPercent)
	}
}

func writeMacro(w io.Writer, acts []craft.Action, opts macro.Options) error {
	lines, err := macro.Format(acts, opts)
	if err != nil {
		return err
	}
	for i, m := range lines {
		fmt.Fprintf(w, "\n# macro %d\n%s", i+1, m)
	}
	sc, err := macro.Encode(acts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\ncode: %s\n", sc)
	return nil
}
