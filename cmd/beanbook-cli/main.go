package main

import "beanbook/cmd/beanbook-cli/cmd"

func main() {
	cmd.Execute()
}
