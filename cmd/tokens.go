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

	"github.com/notargets/meshconv/tokens"
)

// tokensCmd represents the tokens command
var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "List the words and digit runs in a text file",
	Long: `Tokens prints every run of ASCII letters and every run of digits in the
file, one per line, in order of appearance. "abc123" yields "abc" and "123".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := homedir.Expand(args[0])
		if err != nil {
			return err
		}
		toks, err := tokens.ExtractFile(path)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if toks == nil {
				toks = []string{}
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Tokens  []string       `json:"tokens"`
				Summary tokens.Summary `json:"summary"`
			}{toks, tokens.Summarize(toks)})
		}
		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			s := tokens.Summarize(toks)
			fmt.Fprintf(w, "%d tokens: %d words, %d numbers, %d distinct\n", s.Total, s.Words, s.Numbers, s.Distinct)
			return nil
		}
		for _, tok := range toks {
			fmt.Fprintln(w, tok)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().Bool("json", false, "print tokens and counts as JSON")
	tokensCmd.Flags().Bool("summary", false, "print only the counts")
}
