// Command chat is the console client for the e-invoice assistant: an
// interactive session, a routing inspector and taxonomy tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	languageFlag string
	dataDirFlag  string
)

var rootCmd = &cobra.Command{
	Use:           "chat",
	Short:         "Console client for the e-invoice analytics assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&languageFlag, "lang", "l", "en", "conversation language (en or ar)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data", "", "directory holding the CSV data (defaults to DATA_DIR)")

	rootCmd.AddCommand(replCmd, classifyCmd, taxonomyCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
