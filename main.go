package main

import "github.com/AndresProano/CleaningDataIt/internal/cmd"

func main() {
	cmd.Execute()
}
