package main

import (
	"github.com/techpathai/learnyst-automator/cmd"
)

func main() {
	cmd.Execute()
}
