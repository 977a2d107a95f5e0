package main

import (
	"os"

	"github.com/containerd/log"
	"github.com/viant/diskor/cmd/diskord/command"
)

func main() {
	if err := command.New(os.Stdout).Execute(); err != nil {
		log.L.WithError(err).Error("diskord failed")
		os.Exit(1)
	}
}
