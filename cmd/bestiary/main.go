package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "bestiary",
		Short: "Monster statblock extractor",
		Long: `Bestiary turns saved monster pages into structured statblock records.

It works offline on a cached corpus: a urls.txt list plus one <i>.html page
per line, and a class table mapping class names to hit dice.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(classesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
