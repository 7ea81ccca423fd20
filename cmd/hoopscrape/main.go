package main

import (
	"context"

	"hoopscrape/cmd/hoopscrape/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
