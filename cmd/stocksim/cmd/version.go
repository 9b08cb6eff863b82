package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stocksim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocksim version %s\n", version)
		fmt.Println("A stock trading game driven by a GJR-GARCH price simulator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
