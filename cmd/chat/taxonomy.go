package main

import (
	"fmt"
	"os"

	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and validate taxonomy files",
}

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate taxonomy YAML files (the built-in one when no file is given)",
	RunE:  runValidate,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the built-in taxonomy to stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(taxonomy.DefaultDocument())
		return err
	},
}

func init() {
	taxonomyCmd.AddCommand(validateCmd, dumpCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		tx, err := taxonomy.Default()
		if err != nil {
			return err
		}
		report("built-in", tx)
		return nil
	}

	hasError := false
	for _, path := range args {
		tx, err := taxonomy.Load(path)
		if err != nil {
			color.Red("ERROR in %s: %v", path, err)
			hasError = true
			continue
		}
		report(path, tx)
	}
	if hasError {
		os.Exit(1)
	}
	return nil
}

func report(name string, tx *taxonomy.Taxonomy) {
	color.Green("OK: %s", name)
	for _, t := range tx.Tables() {
		fmt.Printf("  %-12s %s → %v\n", t.ID, t.Names.In(lang.English), tx.PermittedDomains(t.ID))
	}
}
