package source

import (
	"bytes"
	_ "embed"
)

//go:embed sample.json
var sampleJSON []byte

// SampleProjects returns the built-in demonstration portfolio.
func SampleProjects() ParseResult {
	return Parse(bytes.NewReader(sampleJSON), Options{})
}
