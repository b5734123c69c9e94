package main

import "github.com/facescan/facescan/cmd"

func main() {
	cmd.Execute()
}
