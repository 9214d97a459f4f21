package main

import "github.com/burnedikt/diasend-nightscout-bridge/cmd/bridge/command"

func main() {
	command.Execute()
}
