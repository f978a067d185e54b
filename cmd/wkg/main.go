// Package main provides the wkg CLI entry point.
package main

func main() {
	Execute()
}
