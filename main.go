package main

import "github.com/KaramelBytes/woescope-cli/cmd"

func main() {
	cmd.Execute()
}
