// Command csim replays a memory trace against a simulated set-associative
// cache and reports hits, misses and evictions.
package main

import (
	"github.com/sarchlab/csim/csim/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
