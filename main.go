package main

import "github.com/francois-poidevin/flighttracker-co2/cli/cmd"

func main() {
	cmd.Execute()
}
