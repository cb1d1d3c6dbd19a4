package main

import "github.com/MeKo-Tech/wsm/internal/cmd"

func main() {
	cmd.Execute()
}
