package main

import "github.com/example/waiting-scheduler/cmd"

func main() {
	cmd.Execute()
}
