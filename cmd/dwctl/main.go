package main

import (
	"github.com/dragonworld-game/server/internal/cli"
)

func main() {
	cli.Execute()
}
