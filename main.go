// The main package for the jobsparser executable.
package main

import (
	"github.com/jobsparser/jobsparser/cmd"
)

func main() {
	cmd.Execute()
}
