package main

import "filechat/internal/commands"

func main() {
	commands.Execute()
}
