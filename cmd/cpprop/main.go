// Command cpprop loads a model description and runs constraint propagation
// on it.
//
//	cpprop propagate -f model.yaml
//	cpprop portfolio -f model.yaml --strategies gecode,one-queue-with-vars
//	cpprop strategies
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "cpprop:", err)
		}
		os.Exit(1)
	}
}
