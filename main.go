package main

import "github.com/user/flowblocs/cmd"

func main() {
	cmd.Execute()
}
