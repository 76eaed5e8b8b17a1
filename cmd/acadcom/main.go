package main

import "github.com/vietddude/acadcom/internal/cli"

func main() {
	cli.Execute()
}
