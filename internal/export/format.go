package export

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is an output artifact type.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

const filenameSuffix = "_business_card"

// whitespaceRun matches the same characters a browser treats as \s.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// ParseFormat accepts "png" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension is the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// MediaType is the MIME type of the artifact.
func (f Format) MediaType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func (f Format) valid() bool {
	return f == FormatPNG || f == FormatPDF
}

// Filename derives the artifact name from the card name: every whitespace run
// becomes one underscore, nothing is trimmed or escaped.
func Filename(name string, f Format) string {
	return whitespaceRun.ReplaceAllString(name, "_") + filenameSuffix + "." + f.Extension()
}
