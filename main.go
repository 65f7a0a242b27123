package main

import "github.com/cppla/treebbs/cmd"

func main() {
	cmd.Execute()
}
