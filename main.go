package main

import (
	"github.com/awardly/compliance-engine/cmd"
)

func main() {
	cmd.Execute()
}
