package main

import (
	"os"

	"github.com/pfrederiksen/golf-news/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
