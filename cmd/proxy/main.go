package main

import (
	"context"
	"fmt"
	"os"

	"github.com/y5a9f2y/proxy/presentation"
)

func main() {
	opts, err := presentation.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "proxy: %v\n", err)
		os.Exit(2)
	}

	if err := presentation.Run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "proxy: %v\n", err)
		os.Exit(1)
	}
}
