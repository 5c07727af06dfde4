package main

import (
	"github.com/sidkik/tether/cmd"
	"github.com/sidkik/tether/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
