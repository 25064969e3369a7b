package main

import (
	"os"

	"github.com/dinehop/dinehop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
