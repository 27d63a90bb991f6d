package main

import "streamlit-packager/internal/cli"

func main() {
	cli.Execute()
}
