package main

import (
	"mindforum/internal/cmd"
)

func main() {
	cmd.Run()
}
