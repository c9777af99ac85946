package main

import "github.com/Layr-Labs/calldecoder/cmd"

func main() {
	cmd.Execute()
}
