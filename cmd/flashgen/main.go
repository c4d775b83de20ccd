package main

import "flashgen/internal/cli"

func main() {
	cli.Execute()
}
