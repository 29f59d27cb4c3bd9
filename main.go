package main

import (
	"os"

	"github.com/ziadkadry99/diamond-desk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
