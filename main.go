package main

import "github.com/ValentinKolb/dTriple/cmd"

func main() {
	cmd.Execute()
}
