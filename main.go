package main

import (
	"os"

	"github.com/hanweng/lingtutor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
