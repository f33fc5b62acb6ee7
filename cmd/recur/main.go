// Command recur evaluates recurrence schedules from the command line.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
