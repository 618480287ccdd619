package main

import (
	"os"

	"github.com/duynguyendang/decviz/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
