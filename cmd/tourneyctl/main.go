package main

import "github.com/mcoot/tourneygate/internal/cli"

func main() {
	cli.Execute()
}
