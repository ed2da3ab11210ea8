package main

import "github.com/AnandSundar/go-litcal/internal/cli"

func main() {
	cli.Execute()
}
