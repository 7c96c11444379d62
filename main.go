package main

import "github.com/frahmantamala/agenda-management/cmd"

func main() {
	cmd.Execute()
}
