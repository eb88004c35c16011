package leanify

import (
	"os"

	leanify "github.com/sunnyday2006/Leanify"
	"github.com/sunnyday2006/Leanify/gzip"
	"github.com/sunnyday2006/Leanify/xml"
)

// Default leanifiers for XML, SVG, FB2 and gzip
var Default *leanify.M

func init() {
	Default = leanify.New()
	Default.Add("text/xml", xml.DefaultLeanifier)
	Default.Add("application/xml", xml.DefaultLeanifier)
	Default.Add("image/svg+xml", xml.DefaultLeanifier)
	Default.Add("application/x-fictionbook+xml", xml.DefaultLeanifier)
	Default.Add("application/gzip", gzip.DefaultLeanifier)
	Default.Add("application/x-gzip", gzip.DefaultLeanifier)
}

// Bytes leanifier using all default leanifiers, the mediatype is detected from the content
func Bytes(b []byte) ([]byte, error) {
	return Default.Bytes("", b)
}

// XML string leanifier using all default leanifiers
func XML(s string) (string, error) {
	b, err := Default.Bytes("text/xml", []byte(s))
	return string(b), err
}

// SVG string leanifier using all default leanifiers
func SVG(s string) (string, error) {
	b, err := Default.Bytes("image/svg+xml", []byte(s))
	return string(b), err
}

// File leanifies the named file in place using all default leanifiers, it is only rewritten when it became smaller.
// It returns the sizes before and after.
func File(filename string) (int, int, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(filename)
	if err != nil {
		return 0, 0, err
	}

	n, err := Default.Leanify("", b, 0)
	if err != nil {
		return len(b), len(b), err
	} else if n < len(b) {
		if err := os.WriteFile(filename, b[:n], info.Mode().Perm()); err != nil {
			return len(b), len(b), err
		}
	}
	return len(b), n, nil
}
