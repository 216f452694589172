package main

import "github.com/KaramelBytes/sleepstat-cli/cmd"

func main() {
	cmd.Execute()
}
