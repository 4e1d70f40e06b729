package main

import (
	"os"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
