// Package main is the entry point for the guard decision service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/guard/cmd/guardd/app"
)

func main() {
	app.NewApp().Run()
}
