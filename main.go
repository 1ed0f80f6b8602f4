package main

import "github.com/goosewin/qagen/cmd"

func main() {
	cmd.Execute()
}
