package main

import "github.com/devicelab-dev/touch-replay/pkg/cli"

func main() {
	cli.Execute()
}
