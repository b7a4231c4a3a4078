package main

import "github.com/KaranUnique/Code-Migration-CLI-Tool/cmd"

func main() {
	cmd.Execute()
}
