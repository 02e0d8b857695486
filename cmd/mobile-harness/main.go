package main

import "github.com/quokka-io/mobile-harness/pkg/cli"

func main() {
	cli.Execute()
}
