package main

import "github.com/notargets/meshconv/cmd"

func main() {
	cmd.Execute()
}
