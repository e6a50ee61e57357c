package main

import "github.com/netnav/netnav/internal/cli"

func main() {
	cli.Execute()
}
