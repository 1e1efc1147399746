package main

import (
	"os"

	"github.com/mkv-git/openttd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
