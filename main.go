package main

import "github.com/camden-git/loreboardbackend/cli"

func main() {
	cli.Execute()
}
