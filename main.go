package main

import "github.com/JimiHenning/vanguard-ab-test/cmd"

func main() {
	cmd.Execute()
}
