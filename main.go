package main

import "github.com/tahrir-ai/tahrir/cmd"

func main() {
	cmd.Execute()
}
