package main

import "github.com/jessemcg/Dog-Ear/internal/cli"

func main() {
	cli.Execute()
}
