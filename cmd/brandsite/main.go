// Command brandsite serves the portfolio site and its admin API.
package main

import (
	"context"
	"fmt"
	"os"

	"brandsite/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args[1:], cli.OSEnv()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
