package main

import (
	"github.com/robotalks/rrr.go/pkg/cli/sh"

	_ "github.com/robotalks/rrr.go/pkg/cli/cmds/device"
)

func main() {
	sh.Main()
}
