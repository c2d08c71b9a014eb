package main

import "github.com/codepanda/gestureimage/cmd/gesturemap/cmd"

func main() {
	cmd.Execute()
}
