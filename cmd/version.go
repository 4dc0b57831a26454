package cmd

import "fmt"

// runVersion displays version information.
func runVersion() {
	fmt.Printf("finsight v%s\n", Version)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
}
