// Package main is the entry point for the nixkryption server.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/nixkryption/server/internal/server"
)

func main() {
	server.NewApp().Run()
}
