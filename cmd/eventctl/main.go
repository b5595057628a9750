package main

import (
	"os"

	_ "eventcore/internal/builtin"
	"eventcore/internal/eventctl"
	"eventcore/internal/registry"
)

func main() {
	os.Exit(eventctl.Execute(registry.Default, os.Args[1:], os.Stdout, os.Stderr))
}
