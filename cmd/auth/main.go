package main

import (
	"fmt"
	"os"

	"github.com/gatehouselabs/gatehouse/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
