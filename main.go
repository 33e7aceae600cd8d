package main

import (
	"os"

	"yoruba-proverbs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
