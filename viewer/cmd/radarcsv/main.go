package main

import "github.com/Krimson/radar-scope/viewer/cmd/radarcsv/commands"

func main() {
	commands.Execute()
}
