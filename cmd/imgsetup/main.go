package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wudi/imagekit/observability"
	"github.com/wudi/imagekit/setup"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: imgsetup [flags]\n")
		flag.PrintDefaults()
	}
	workspace := flag.String("workspace", ".", "Directory for config and model data")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	opts := []setup.Option{setup.WithOutput(os.Stdout)}
	if *verbose {
		opts = append(opts, setup.WithLogger(observability.NewWriterLogger(os.Stderr)))
	}
	doctor := setup.New(*workspace, opts...)
	if _, err := doctor.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
