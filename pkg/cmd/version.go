package cmd

import (
	"fmt"

	bagcontext "github.com/danielkrainas/gobag/context"
	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "show version information",
	Long:  "show version information",
	Run: func(cmd *cobra.Command, args []string) {
		version.Version = bagcontext.GetVersion(rootContext)
		fmt.Fprintln(cmd.OutOrStdout(), version.Print("lapse"))
	},
}
