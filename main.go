package main

import "github.com/roadrunner/api-go/cmd"

func main() {
	cmd.Execute()
}
