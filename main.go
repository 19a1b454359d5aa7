package main

import "github.com/uyuni-project/dbjson/cmd"

func main() {
	cmd.Execute()
}
