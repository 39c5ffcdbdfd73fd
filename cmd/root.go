package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gvm",
	Short: "A small JVM bytecode interpreter",
	Long: `gvm loads .class files from a classpath directory and interprets their
bytecode, with an optional live execution monitor.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
