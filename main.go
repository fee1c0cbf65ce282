package main

import "github.com/twiced-technology-gmbh/plantrack/cmd"

func main() {
	cmd.Execute()
}
