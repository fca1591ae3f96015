package main

import (
	"os"

	"github.com/raysh454/nyxguard/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
