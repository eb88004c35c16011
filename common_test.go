package leanify

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestDataURI(t *testing.T) {
	m := New()
	m.AddFunc("text/plain", halve)

	tests := []struct {
		uri      string
		expected string
	}{
		{"data:,texttext", "data:,text"},
		{"data:;base64,dGV4dHRleHQ=", "data:,text"},
		{"data:text/plain;base64,dGV4dHRleHQ=", "data:,text"},
		{"data:text/plain;charset=US-ASCII,texttext", "data:,text"},
		{"data:application/octet-stream;base64,AAECAwQFBgcICQ==", "data:application/octet-stream;base64,AAECAwQFBgcICQ=="},
		{"data:,<>", "data:,<>"}, // escaping makes it longer
		{"nodata", "nodata"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			uri := DataURI(m.NewContext(), []byte(tt.uri))
			test.String(t, string(uri), tt.expected)
		})
	}
}

func TestDataURIUnaliased(t *testing.T) {
	m := New()
	m.AddFunc("text/plain", halve)

	orig := "data:text/plain;base64,dGV4dHRleHQ="
	b := []byte(orig)
	DataURI(m.NewContext(), b)
	test.String(t, string(b), orig)
}

func FuzzDataURI(f *testing.F) {
	f.Add([]byte("data:,text"))
	f.Add([]byte("data:text/plain;base64,dGV4dHRleHQ="))
	f.Fuzz(func(t *testing.T, data []byte) {
		m := New()
		m.AddFunc("text/plain", halve)
		if uri := DataURI(m.NewContext(), data); len(data) < len(uri) {
			t.Fatalf("data URI larger than input: %q", uri)
		}
	})
}
