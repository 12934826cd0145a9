package main

import "github/chapool/jetton-signer/cmd"

func main() {
	cmd.Execute()
}
