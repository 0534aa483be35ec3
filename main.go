package main

import "github/chapool/go-ethtx/cmd"

func main() {
	cmd.Execute()
}
