// Package main crudster CRUD REST API
//
//	@title			crudster API
//	@version		0.1.0
//	@description	crudster exposes generic CRUD over a single document collection
package main

import "github.com/crudster/crudster/internal"

func main() {
	internal.Run()
}
