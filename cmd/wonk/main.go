package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "wonk"}

	root.AddCommand(serveCMD(), analyzeCMD())
	_ = root.Execute()
}
