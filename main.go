package main

import "github.com/tarsonis125/mocket/cmd"

func main() {
	cmd.Execute()
}
