package main

import "github.com/MeKo-Tech/fractalnoise/internal/cmd"

func main() {
	cmd.Execute()
}
