//go:build cli
// +build cli

package main

import (
	_ "ballstore.GO/cron/jobs"

	"ballstore.GO/cmd"
	"ballstore.GO/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
