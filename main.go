package main

import "github.com/rbdcsite/shelfeed/cmd"

func main() {
	cmd.Execute()
}
