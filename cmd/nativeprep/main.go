package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"

	"github.com/goplus/nativeprep/cmd/nativeprep/internal"
	"github.com/goplus/nativeprep/internal/errs"
)

func main() {
	if err := internal.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("error: %v", err))
		os.Exit(errs.ExitCode(err))
	}
}
