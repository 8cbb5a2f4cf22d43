package main

import (
	"os"

	"horse.fit/transpop/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
