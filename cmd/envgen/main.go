// Command envgen prints the environment descriptors of a configuration in
// the compact entry form accepted by the "environments" key, or as JSON
// descriptors for "environment_defs".
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"word2latex/internal/config"
	"word2latex/internal/environment"
)

var rootCmd = &cobra.Command{
	Use:   "envgen [entry...]",
	Short: "Print environment descriptors as entries or JSON",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "configuration file")
	rootCmd.Flags().Bool("json", false, "print JSON descriptors instead of entries")
}

func run(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")

	var ds []environment.Descriptor
	if path != "" {
		o, err := config.Load(path, nil)
		if err != nil {
			return err
		}
		ds = append(ds, o.EnvironmentDefs...)
		parsed, err := environment.ParseEntries(o.Environments)
		if err != nil {
			return err
		}
		ds = append(ds, parsed...)
	}
	parsed, err := environment.ParseEntries(args)
	if err != nil {
		return err
	}
	ds = append(ds, parsed...)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	}
	for _, d := range ds {
		fmt.Fprintln(out, environment.FormatEntry(d))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
