package main

import "github.com/KaramelBytes/climalyze/cmd"

func main() {
	cmd.Execute()
}
