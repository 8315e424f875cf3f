package main

import "github.com/bshell/bsh/cmd"

func main() {
	cmd.Execute()
}
