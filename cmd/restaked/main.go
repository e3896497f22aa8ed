package main

import "github.com/LeJamon/restaked/internal/cli"

func main() {
	cli.Execute()
}
