package main

import "github.com/tansive/rostersync/internal/cli"

func main() {
	cli.Execute()
}
