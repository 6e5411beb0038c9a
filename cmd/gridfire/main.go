package main

import "github.com/mcoot/gridfire-go/internal/cli"

func main() {
	cli.Execute()
}
