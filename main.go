package main

import "lmxcli/cmd"

func main() {
	cmd.Execute()
}
