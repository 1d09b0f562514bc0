package main

import "AnomalyForge/pkg/commands"

func main() {
	commands.Execute()
}
