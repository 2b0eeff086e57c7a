package main

import "fmt"

// exitCode carries a process exit status through cobra's error return.
// Commands that already printed their outcome use it to fail the process
// without main adding an error line on top.
type exitCode struct {
	status int
}

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", e.status)
}

func exitSilent(status int) error {
	return exitCode{status: status}
}
