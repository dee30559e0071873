package importer

import (
	"path/filepath"
	"strings"

	"github.com/luca-finance/luca/internal/model"
)

// Format is the closed set of file shapes the importer recognises.
type Format int

const (
	FormatUnsupported Format = iota
	FormatCaixaBank
	FormatRevolut
)

func (f Format) String() string {
	switch f {
	case FormatCaixaBank:
		return "caixabank"
	case FormatRevolut:
		return "revolut"
	default:
		return "unsupported"
	}
}

// Source returns the transaction source produced by the format's parser.
func (f Format) Source() model.Source {
	switch f {
	case FormatCaixaBank:
		return model.SourceCaixaBank
	case FormatRevolut:
		return model.SourceRevolut
	default:
		return ""
	}
}

// Signal records which detection rule chose the format.
type Signal string

const (
	SignalExtension Signal = "extension"
	SignalFilename  Signal = "filename"
	SignalContent   Signal = "content"
	SignalFallback  Signal = "fallback"
)

// Detection is the result of Detect.
type Detection struct {
	Format Format
	Signal Signal
}

type marker struct {
	format Format
	needle string
}

// Checked in order; the first hit wins.
var (
	filenameMarkers = []marker{
		{FormatCaixaBank, "caixa"},
		{FormatRevolut, "revolut"},
		{FormatRevolut, "consolidated"},
	}
	contentMarkers = []marker{
		{FormatRevolut, "Summary for Savings"},
		{FormatRevolut, "Revolut"},
		{FormatCaixaBank, CaixaBankHeader},
	}
)

// Detect classifies an uploaded file. Non-CSV files are unsupported. A CSV
// that matches no filename or content marker falls back to CaixaBank.
func Detect(filename, content string) Detection {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return Detection{Format: FormatUnsupported, Signal: SignalExtension}
	}

	lower := strings.ToLower(filepath.Base(filename))
	for _, m := range filenameMarkers {
		if strings.Contains(lower, m.needle) {
			return Detection{Format: m.format, Signal: SignalFilename}
		}
	}

	for _, m := range contentMarkers {
		if strings.Contains(content, m.needle) {
			return Detection{Format: m.format, Signal: SignalContent}
		}
	}

	return Detection{Format: FormatCaixaBank, Signal: SignalFallback}
}
