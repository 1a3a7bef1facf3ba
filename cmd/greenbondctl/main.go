// Command greenbondctl is the operator CLI: seeding, reconciliation and
// read-only views over the bond catalogue and portfolios.
package main

import (
	"fmt"
	"os"
)

func main() {
	root, c := newRootCmd()
	err := root.Execute()
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
