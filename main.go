package main

import "github.com/Tiliavir/trivial-sleep-tracker/cmd"

func main() {
	cmd.Execute()
}
