package main

import "github.com/dbsmedya/goalias/cmd/goalias/cmd"

func main() {
	cmd.Execute()
}
