package mapfile

import (
	"bytes"
	_ "embed"
)

// SampleName is the default map of the built-in sample file.
const SampleName = "sample"

//go:embed sample.xml
var sampleXML []byte

// SampleMaps decodes the built-in sample file.
func SampleMaps(reg *IDRegistry) ([]Map, error) {
	return DecodeAll(bytes.NewReader(sampleXML), FormatXML, reg)
}

// Sample returns the built-in map called SampleName.
func Sample(reg *IDRegistry) (*Map, error) {
	return Decode(bytes.NewReader(sampleXML), FormatXML, SampleName, reg)
}
