package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// input is one document to process.
type input struct {
	name string
	data []byte
	err  error
}

// readInputs expands glob patterns and reads every matching file. "-" reads
// stdin. Read failures are returned per input so processing can continue.
func readInputs(args []string, stdin io.Reader) []input {
	var out []input
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			out = append(out, input{name: "stdin", data: data, err: err})
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			out = append(out, input{name: arg, err: fmt.Errorf("bad pattern: %w", err)})
			continue
		}
		if len(matches) == 0 {
			out = append(out, input{name: arg, err: fmt.Errorf("no files match pattern: %s", arg)})
			continue
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			out = append(out, input{name: path, data: data, err: err})
		}
	}
	return out
}
