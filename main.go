package main

import "apiguard/cmd"

func main() {
	cmd.Execute()
}
