package main

import (
	"github.com/robotalks/shdlc.go/pkg/cli/sh"
	"github.com/robotalks/shdlc.go/pkg/env"

	_ "github.com/robotalks/shdlc.go/pkg/cli/cmds/flowmeter"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
