package main

import "github.com/Laisky/agent-search-tools/cmd"

func main() {
	cmd.Execute()
}
