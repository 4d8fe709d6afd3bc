package main

import "github.com/neonofficialstudio-ux/awbeta1-sub002/internal/cli"

func main() {
	cli.Execute()
}
