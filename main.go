package main

import "github.com/porousmedia/porsol/cmd"

func main() {
	cmd.Execute()
}
