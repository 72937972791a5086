package main

import "artistnet/tagsim/cmd"

func main() {
	cmd.Execute()
}
