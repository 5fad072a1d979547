package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "seedflow-trigger",
		Usage:                 "Publish trigger events into the flow engine",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewRunCommand(),
			NewFireCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
