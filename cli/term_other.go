//go:build !linux && !darwin && !freebsd

package main

func terminalWidth() int {
	return 80
}
