package main

import "github.com/kozaktomas/face-recall/cmd"

func main() {
	cmd.Execute()
}
