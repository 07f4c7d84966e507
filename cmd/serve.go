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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/meshconv/converter"
	"github.com/notargets/meshconv/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and the conversion API",
	Long: `Serve starts the HTTP server: an upload page at /, token extraction at
POST /api/v1/uploads and mesh conversion at POST /api/v1/convert.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := meshingParameters(cmd)
		if err != nil {
			return err
		}
		conv, err := converter.New(converter.Config{
			WorkDir:   viper.GetString("server.work_dir"),
			CacheSize: viper.GetInt("server.cache_size"),
			Params:    ip,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		cfg := server.DefaultConfig()
		cfg.Addr = viper.GetString("server.addr")
		cfg.MaxUpload = viper.GetString("server.max_upload")
		if d := viper.GetDuration("server.read_timeout"); d > 0 {
			cfg.ReadTimeout = d
		}
		if d := viper.GetDuration("server.write_timeout"); d > 0 {
			cfg.WriteTimeout = d
		}
		srv, err := server.New(cfg, conv, logger)
		if err != nil {
			return err
		}

		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	defaults := server.DefaultConfig()
	serveCmd.Flags().StringP("addr", "a", defaults.Addr, "listen address")
	serveCmd.Flags().String("max-upload", defaults.MaxUpload, "largest accepted upload, e.g. 64MB")
	serveCmd.Flags().String("work-dir", "", "parent directory for per request temp files (default: system temp)")
	serveCmd.Flags().Int("cache-size", 32, "converted meshes kept in memory, 0 disables the cache")
	addEngineFlags(serveCmd)

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_upload", serveCmd.Flags().Lookup("max-upload"))
	_ = viper.BindPFlag("server.work_dir", serveCmd.Flags().Lookup("work-dir"))
	_ = viper.BindPFlag("server.cache_size", serveCmd.Flags().Lookup("cache-size"))
}
