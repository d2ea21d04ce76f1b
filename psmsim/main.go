// Command psmsim runs the PSM firmware against simulated hardware.
package main

import "github.com/sarchlab/psmfw/psmsim/cmd"

func main() {
	cmd.Execute()
}
