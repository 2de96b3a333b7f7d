package main

import "studyfocus/internal/cli"

func main() {
	cli.Execute()
}
