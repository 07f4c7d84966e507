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
	"encoding/json"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/notargets/meshconv/mesh"
	"github.com/notargets/meshconv/mesh/readers"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <mesh>",
	Short: "Print point, cell and volume statistics of a mesh file",
	Long: `Inspect reads an MSH (2.2 or 4.1), STL or NASTRAN file and prints the
number of points, cells per type, bounds and total tetrahedral volume. With
--degrade the statistics are taken after tetra10 cells are reduced to tetra.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := homedir.Expand(args[0])
		if err != nil {
			return err
		}
		msh, err := readers.ReadMeshFile(path)
		if err != nil {
			return err
		}
		if degrade, _ := cmd.Flags().GetBool("degrade"); degrade {
			msh = mesh.Degrade(msh)
		}
		stats := msh.ComputeStatistics()

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		if msh.FormatVersion != "" {
			fmt.Fprintf(w, "MSH format %s\n", msh.FormatVersion)
		}
		stats.PrintStatistics(w)
		if msh.HasQuadratic() {
			fmt.Fprintln(w, "mesh has second order cells")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "print statistics as JSON")
	inspectCmd.Flags().Bool("degrade", false, "reduce tetra10 cells to tetra first")
}
