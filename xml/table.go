package xml

// defaultAttrMap holds the initial values of SVG presentation attributes and of a few geometry and filter attributes,
// following https://github.com/svg/svgo/blob/master/plugins/_collections.js.
var defaultAttrMap = map[string]string{
	"x":                            "0",
	"y":                            "0",
	"width":                        "100%",
	"height":                       "100%",
	"clip":                         "auto",
	"clip-path":                    "none",
	"clip-rule":                    "nonzero",
	"mask":                         "none",
	"opacity":                      "1",
	"solid-color":                  "#000",
	"solid-opacity":                "1",
	"stop-color":                   "#000",
	"stop-opacity":                 "1",
	"fill-opacity":                 "1",
	"fill-rule":                    "nonzero",
	"fill":                         "#000",
	"stroke":                       "none",
	"stroke-width":                 "1",
	"stroke-linecap":               "butt",
	"stroke-linejoin":              "miter",
	"stroke-miterlimit":            "4",
	"stroke-dasharray":             "none",
	"stroke-dashoffset":            "0",
	"stroke-opacity":               "1",
	"paint-order":                  "normal",
	"vector-effect":                "none",
	"viewport-fill":                "none",
	"viewport-fill-opacity":        "1",
	"display":                      "inline",
	"visibility":                   "visible",
	"marker-start":                 "none",
	"marker-mid":                   "none",
	"marker-end":                   "none",
	"color-interpolation":          "sRGB",
	"color-interpolation-filters":  "linearRGB",
	"color-rendering":              "auto",
	"shape-rendering":              "auto",
	"text-rendering":               "auto",
	"image-rendering":              "auto",
	"buffered-rendering":           "auto",
	"font-style":                   "normal",
	"font-variant":                 "normal",
	"font-weight":                  "normal",
	"font-stretch":                 "normal",
	"font-size":                    "medium",
	"font-size-adjust":             "none",
	"kerning":                      "auto",
	"letter-spacing":               "normal",
	"word-spacing":                 "normal",
	"text-decoration":              "none",
	"text-anchor":                  "start",
	"text-overflow":                "clip",
	"writing-mode":                 "lr-tb",
	"glyph-orientation-vertical":   "auto",
	"glyph-orientation-horizontal": "0deg",
	"direction":                    "ltr",
	"unicode-bidi":                 "normal",
	"dominant-baseline":            "auto",
	"alignment-baseline":           "baseline",
	"baseline-shift":               "baseline",
	"slope":                        "1",
	"intercept":                    "0",
	"amplitude":                    "1",
	"exponent":                     "1",
	"offset":                       "0",
}

// emptyTagMap holds the container and text elements that have no effect without children.
var emptyTagMap = map[string]bool{
	"a":             true,
	"defs":          true,
	"g":             true,
	"marker":        true,
	"mask":          true,
	"missing-glyph": true,
	"pattern":       true,
	"switch":        true,
	"symbol":        true,
	"text":          true,
	"tspan":         true,
}

// dataURITagMap holds the elements whose href may embed a resource as a data URI.
var dataURITagMap = map[string]bool{
	"image":   true,
	"feImage": true,
}
