package main

import "github.com/geeklurk/lurkgate/cmd/lurkgate/cmd"

func main() {
	cmd.Execute()
}
