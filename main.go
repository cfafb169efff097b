package main

import "github.com/zhubert/agenttalk/cmd"

func main() {
	cmd.Execute()
}
