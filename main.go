package main

import "osdashboard/internal/app"

func main() {
	app.Main()
}
