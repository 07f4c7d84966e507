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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/meshconv/InputParameters"
	"github.com/notargets/meshconv/logging"
)

var logger = zap.NewNop()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "meshconv",
	Short: "Extract tokens from uploads and convert surface meshes to FrontISTR ready MSH 2.2",
	Long: `meshconv scans text uploads for words and numbers and converts STL surface
meshes and NASTRAN decks into linear tetrahedral meshes in Gmsh MSH 2.2 format.

Surface meshes are filled with tetrahedra by an external gmsh process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(viper.GetBool("verbose"))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./meshconv.yaml or ~/.config/meshconv/meshconv.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		if expanded, err := homedir.Expand(cfgFile); err == nil {
			cfgFile = expanded
		}
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("meshconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "meshconv"))
		}
	}

	viper.SetEnvPrefix("MESHCONV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// meshingParameters assembles the engine settings: defaults, then the
// engine.params_file YAML file, then the inline engine section of the
// config, then command line overrides
func meshingParameters(cmd *cobra.Command) (*InputParameters.MeshingParameters, error) {
	ip := InputParameters.NewMeshingParameters()

	flags := cmd.Flags()
	paramsFile := viper.GetString("engine.params_file")
	if flags.Changed("meshingParams") {
		paramsFile, _ = flags.GetString("meshingParams")
	}
	if f := paramsFile; f != "" {
		if err := ip.ReadFile(f); err != nil {
			return nil, fmt.Errorf("engine.params_file: %w", err)
		}
	}
	section := make(map[string]interface{})
	for k, v := range viper.GetStringMap("engine") {
		if k != "params_file" {
			section[k] = v
		}
	}
	if len(section) > 0 {
		data, err := yaml.Marshal(section)
		if err != nil {
			return nil, err
		}
		if err := ip.Parse(data); err != nil {
			return nil, fmt.Errorf("engine section: %w", err)
		}
	}

	if flags.Changed("gmsh") {
		ip.EngineBinary, _ = flags.GetString("gmsh")
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		ip.TimeoutSeconds = timeout.Seconds()
	}
	if err := ip.Validate(); err != nil {
		return nil, err
	}
	if viper.GetBool("verbose") {
		ip.Print(os.Stderr)
	}
	return ip, nil
}

// addEngineFlags registers the flags read by meshingParameters
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("gmsh", "gmsh", "gmsh executable")
	cmd.Flags().Duration("timeout", 0, "limit for one gmsh run (default from the meshing parameters, 5m)")
	cmd.Flags().StringP("meshingParams", "P", "", "YAML file of meshing parameters (config: engine.params_file)")
}
