/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/meshconv/converter"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <mesh.stl|mesh.nas>",
	Short: "Convert a surface or volume mesh to a linear tetrahedral MSH 2.2 file",
	Long: `Convert writes a Gmsh MSH 2.2 mesh holding only linear cells.

STL surfaces are filled with tetrahedra by gmsh (surface-to-volume); NASTRAN
decks are read directly and their tetra10 cells reduced to tetra. The output
is named after the input unless -o is given:

  P7_column_comsol_mesh.stl  ->  P7Framec_fistr.msh
  other.stl                  ->  converted_fistr.msh
  bracket.nas                ->  bracket.msh`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := homedir.Expand(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		strategyName, _ := cmd.Flags().GetString("strategy")
		profileMode, _ := cmd.Flags().GetString("profile")

		strategy, explicit, err := converter.ParseStrategy(strategyName)
		if err != nil {
			return err
		}
		if !explicit {
			if strategy, err = converter.StrategyFor(in); err != nil {
				return err
			}
		}

		switch profileMode {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
		default:
			return fmt.Errorf("unknown profile mode %q, want cpu or mem", profileMode)
		}

		ip, err := meshingParameters(cmd)
		if err != nil {
			return err
		}
		conv, err := converter.New(converter.Config{Params: ip, Logger: logger})
		if err != nil {
			return err
		}

		res, err := conv.ConvertFile(cmd.Context(), in, out, strategy)
		if err != nil {
			var engErr *converter.EngineError
			if errors.As(err, &engErr) && engErr.Diagnostics() != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), engErr.Diagnostics())
			}
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s -> %s (%s, %s, %s)\n", filepath.Base(in), res.Name, strategy,
			humanize.Bytes(uint64(len(res.Data))), res.Duration.Round(time.Millisecond))
		res.Stats.PrintStatistics(w)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "output file (default: derived from the input name)")
	convertCmd.Flags().StringP("strategy", "s", "auto", "auto, direct or surface-to-volume")
	convertCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	addEngineFlags(convertCmd)
}
