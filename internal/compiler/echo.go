package compiler

import "context"

// Echo returns every source unchanged. It stands in for the external
// compiler in dry runs, so selection and reporting can be exercised without
// a compiler installed.
type Echo struct{}

// Compile implements Compiler.
func (Echo) Compile(_ context.Context, _ string, _ []Preset, src []byte) ([]byte, error) {
	return src, nil
}
