package main

import (
	"github.com/kfalicov/super-swash-bros/internal/cli"
	"github.com/kfalicov/super-swash-bros/internal/logging"
)

func main() {
	logging.Init()
	cli.Execute()
}
