package main

import (
	"os"

	"github.com/kjk/appregistry/log"
)

func main() {
	log.Output = os.Stderr
	err := newRootCmd().Execute()
	failed := log.IfErrf(err, "Error: %s", err)
	log.Close()
	if failed {
		os.Exit(1)
	}
}
