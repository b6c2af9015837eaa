// Command banditd runs the bandit experiment service.
package main

import (
	"fmt"
	"os"

	"github.com/clabrugere/go-bandits/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
