package main

import "github.com/nfrund/mintari/cmd/mintari-cli/cmd"

func main() {
	cmd.Execute()
}
