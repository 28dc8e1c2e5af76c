package main

import "github.com/theirongolddev/riskboard/cmd"

func main() {
	cmd.Execute()
}
