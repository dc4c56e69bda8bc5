package main

import (
	"os"

	"github.com/grovetools/br0wse/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
