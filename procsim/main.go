package main

import "github.com/sarchlab/procsim/procsim/cmd"

func main() {
	cmd.Execute()
}
