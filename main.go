package main

import (
	messageboard "github.com/nytour/messageboard/app"
)

func main() {
	app := messageboard.New(nil, nil)
	app.Start()
}
