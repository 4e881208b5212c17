package main

import "github.com/mvp-joe/autodoc/internal/cli"

func main() {
	cli.Execute()
}
