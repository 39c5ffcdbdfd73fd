package main

import "github.com/mabhi256/gvm/cmd"

func main() {
	cmd.Execute()
}
