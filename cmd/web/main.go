package main

import "parentpal_backend/internal/app"

func main() {
	app.Run()
}
