package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "ecfr"}

	root.AddCommand(ingestCMD(), serveCMD(), migrateCMD(), watchCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
