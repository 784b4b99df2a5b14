package main

import (
	"github.com/InformaticsMatters/fragalysis-api/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
