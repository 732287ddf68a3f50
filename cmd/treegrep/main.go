package main

import (
	"github.com/mvp-joe/treegrep/internal/cli"
)

func main() {
	cli.Execute()
}
