// The main package for the yrfi executable.
package main

import (
	"github.com/diamondsights/yrfi-pipeline/cmd"
)

func main() {
	cmd.Execute()
}
