package main

import "github.com/jayteealao/gitsync/cmd"

func main() {
	cmd.Execute()
}
