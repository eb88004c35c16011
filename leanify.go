// Package leanify reduces file sizes losslessly. Format handlers are registered per mediatype and may recurse into
// resources embedded in the files they handle, up to a configurable depth.
package leanify

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os/exec"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/tdewolff/parse/v2"
	"go.uber.org/zap"
)

// ErrNotExist is returned when no leanifier is set for a given mediatype.
var ErrNotExist = errors.New("leanifier does not exist for mimetype")

////////////////////////////////////////////////////////////////

// Leanifier is the interface for file leanifiers. The file to leanify is buf[start:] and the result is written to the
// front of buf, the returned integer is the new length. Start equals the number of bytes already saved by the caller.
type Leanifier interface {
	Leanify(*Context, []byte, int) (int, error)
}

// LeanifierFunc is a function that implements Leanifier.
type LeanifierFunc func(*Context, []byte, int) (int, error)

// Leanify calls f(c, buf, start).
func (f LeanifierFunc) Leanify(c *Context, buf []byte, start int) (int, error) {
	return f(c, buf, start)
}

type cmdLeanifier struct {
	args []string
}

// Leanify pipes the file through the command and keeps its output only when it is smaller.
func (l *cmdLeanifier) Leanify(_ *Context, buf []byte, start int) (int, error) {
	in := buf[start:]
	cmd := exec.Command(l.args[0], l.args[1:]...)
	cmd.Stdin = bytes.NewReader(in)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		return copy(buf, in), err
	}
	if out.Len() == 0 || len(in) <= out.Len() {
		return copy(buf, in), nil
	}
	return copy(buf, out.Bytes()), nil
}

////////////////////////////////////////////////////////////////

// M holds a map of mediatype => leanifier.
type M struct {
	mutex   sync.RWMutex
	literal map[string]Leanifier

	// MaxDepth bounds the nesting of embedded resources, the top-level file is at depth 1.
	MaxDepth int
	Logger   *zap.Logger
}

// New returns a new M.
func New() *M {
	return &M{
		literal:  map[string]Leanifier{},
		MaxDepth: math.MaxInt32,
		Logger:   zap.NewNop(),
	}
}

// AddFunc adds a leanify function to the mediatype => function map.
func (m *M) AddFunc(mediatype string, leanifier LeanifierFunc) {
	m.mutex.Lock()
	m.literal[mediatype] = leanifier
	m.mutex.Unlock()
}

// Add adds a leanifier to the mediatype => interface map.
func (m *M) Add(mediatype string, leanifier Leanifier) {
	m.mutex.Lock()
	m.literal[mediatype] = leanifier
	m.mutex.Unlock()
}

// AddCmd adds a command to the mediatype => leanifier map. The command string is split into arguments using shell
// quoting rules, the file is written to its stdin and its stdout is used when smaller.
func (m *M) AddCmd(mediatype string, command string) error {
	args, err := shellquote.Split(command)
	if err != nil {
		return err
	} else if len(args) == 0 {
		return errors.New("empty command")
	}
	m.Add(mediatype, &cmdLeanifier{args})
	return nil
}

// Match returns the leanifier for the mediatype, parameters are ignored. It returns nil when none is set.
func (m *M) Match(mediatype string) Leanifier {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	mimetype, _ := parse.Mediatype([]byte(mediatype))
	if leanifier, ok := m.literal[string(mimetype)]; ok {
		return leanifier
	}
	return nil
}

// Leanify leanifies buf[start:] with the leanifier of the given mediatype and writes the result to the front of buf.
// An empty mediatype means the mediatype is detected from the content. It returns the new length.
func (m *M) Leanify(mediatype string, buf []byte, start int) (int, error) {
	if mediatype == "" {
		mediatype = m.detect(buf[start:])
	}
	leanifier := m.Match(mediatype)
	if leanifier == nil {
		return copy(buf, buf[start:]), ErrNotExist
	}
	return leanifier.Leanify(m.NewContext(), buf, start)
}

// Bytes leanifies a copy of b and returns the result.
func (m *M) Bytes(mediatype string, b []byte) ([]byte, error) {
	buf := make([]byte, len(b))
	copy(buf, b)
	n, err := m.Leanify(mediatype, buf, 0)
	return buf[:n], err
}

// Reader leanifies everything read from r and writes it to w.
func (m *M) Reader(mediatype string, w io.Writer, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b, err = m.Bytes(mediatype, b)
	if err != nil && err != ErrNotExist {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (m *M) detect(b []byte) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return detect(b, func(mediatype string) bool {
		_, ok := m.literal[mediatype]
		return ok
	})
}

////////////////////////////////////////////////////////////////

// Context carries the state of one top-level leanify call through nested leanifiers, most importantly the recursion
// depth. It must not be shared between goroutines.
type Context struct {
	m     *M
	depth int
}

// NewContext returns a context at depth 1.
func (m *M) NewContext() *Context {
	return &Context{m, 1}
}

// Depth returns the current recursion depth.
func (c *Context) Depth() int {
	return c.depth
}

// Logger returns the diagnostics logger.
func (c *Context) Logger() *zap.Logger {
	if c.m.Logger == nil {
		return zap.NewNop()
	}
	return c.m.Logger
}

// Descend increments the depth when it is below the maximum and reports whether it did. Every successful Descend
// must be paired with an Ascend.
func (c *Context) Descend() bool {
	if c.m.MaxDepth <= c.depth {
		return false
	}
	c.depth++
	return true
}

// Ascend decrements the depth.
func (c *Context) Ascend() {
	if 1 < c.depth {
		c.depth--
	}
}

// Leanify detects the mediatype of buf[start:] and leanifies it with the same context, for use by leanifiers that
// handle embedded resources. Failures are logged and leave the data unchanged.
func (c *Context) Leanify(buf []byte, start int) int {
	in := buf[start:]
	mediatype := c.m.detect(in)
	leanifier := c.m.Match(mediatype)
	if leanifier == nil {
		c.Logger().Debug("no leanifier for embedded resource", zap.String("mimetype", mediatype))
		return copy(buf, in)
	}

	// the leanifier may have overwritten the front of buf before failing
	orig := make([]byte, len(in))
	copy(orig, in)
	n, err := leanifier.Leanify(c, buf, start)
	if err != nil || len(in) < n {
		c.Logger().Debug("cannot leanify embedded resource", zap.String("mimetype", mediatype), zap.Error(err))
		return copy(buf, orig)
	}
	return n
}
