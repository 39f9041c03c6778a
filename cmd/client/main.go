package main

import "clipkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
