// Command tarstream streams a tar archive of one or more filesystem paths
// to stdout, without ever building the archive in memory or on disk first.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "tarstream",
		Short: "Stream a tar archive of filesystem paths",
	}
	root.AddCommand(newArchiveCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
