package main

import "github.com/jrieke/year-on-github/cmd"

func main() {
	cmd.Execute()
}
