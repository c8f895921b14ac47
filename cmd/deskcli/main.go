package main

import (
	"github.com/robotalks/deskbridge/pkg/cli/sh"
	env "github.com/robotalks/deskbridge/pkg/l1/env/connector"

	_ "github.com/robotalks/deskbridge/pkg/cli/cmds/desk"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
