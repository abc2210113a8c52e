package main

import "github.com/example/roleguard/internal/interfaces/cli"

func main() {
	cli.Execute()
}
