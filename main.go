package main

import (
	"os"

	"github.com/lumen-ai/lumen-cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
