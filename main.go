package main

import "github.com/gmarkoss/tessera/cmd"

func main() {
	cmd.Execute()
}
