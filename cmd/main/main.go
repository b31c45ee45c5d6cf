// Command main prints the sum of its two integer arguments.
//
//	$ main 2 3
//	Sum: 5
package main

import (
	"os"

	"github.com/masp/sum/internal/cli"
)

// main is the only function calling os.Exit.
func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
