package main

import "github.com/novaev/expansion/cmd"

func main() {
	cmd.Execute()
}
