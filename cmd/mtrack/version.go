package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/franz/media-tracker/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mtrack %s (%s, %s/%s, sqlite %s)\n",
			Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, store.SQLiteVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
