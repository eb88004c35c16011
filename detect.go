package leanify

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/tdewolff/parse/v2"
)

// Detect returns the mediatype of the content in b without parameters, or application/octet-stream when unknown.
func Detect(b []byte) string {
	return detect(b, func(string) bool { return false })
}

// detect walks from the most specific detected mediatype up to its parents and returns the first one for which
// registered returns true, or the most specific one otherwise.
func detect(b []byte, registered func(string) bool) string {
	mt := mimetype.Detect(b)
	first := ""
	for ; mt != nil; mt = mt.Parent() {
		mediatype, _ := parse.Mediatype([]byte(mt.String()))
		if first == "" {
			first = string(mediatype)
		}
		if registered(string(mediatype)) {
			return string(mediatype)
		}
	}
	return first
}
