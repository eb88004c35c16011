package main

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/djherbis/atime"
	humanize "github.com/dustin/go-humanize"
	"github.com/tdewolff/argp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	leanify "github.com/sunnyday2006/Leanify"
	"github.com/sunnyday2006/Leanify/gzip"
	"github.com/sunnyday2006/Leanify/xml"
)

// Version is the current leanify version.
var Version = "built from source"

var extMap = map[string]string{
	"fb2":  "application/x-fictionbook+xml",
	"gz":   "application/gzip",
	"rss":  "application/rss+xml",
	"svg":  "image/svg+xml",
	"svgz": "application/gzip",
	"xml":  "text/xml",
}

var (
	hidden             bool
	list               bool
	m                  *leanify.M
	matches            []string
	matchesRegexp      []*regexp.Regexp
	commands           []string
	recursive          bool
	quiet              bool
	verbose            int
	version            bool
	watch              bool
	iterations         int
	maxDepth           int
	preserve           []string
	preserveMode       bool
	preserveTimestamps bool
	mimetype           string
	logger             = zap.NewNop()
)

// Items scans option values up to the next option.
type Items struct {
	items *[]string
}

func (scanner Items) Scan(s []string) (int, error) {
	n := 0
	for _, item := range s {
		if strings.HasPrefix(item, "-") {
			break
		}
		*scanner.items = append(*scanner.items, item)
		n++
	}
	return n, nil
}

func (typenamer Items) TypeName() string {
	return "[]string"
}

// Task is a leanify task, an empty src means stdin to stdout.
type Task struct {
	root string
	src  string
}

func main() {
	// os.Exit doesn't execute pending defer calls, this is fixed by encapsulating run()
	os.Exit(run())
}

func run() int {
	var inputs []string

	xmlLeanifier := xml.Leanifier{}
	gzipLeanifier := gzip.Leanifier{}

	f := argp.New("leanify")
	f.AddRest(&inputs, "inputs", "Input files or directories, leave blank to use stdin and stdout")
	f.AddOpt(&mimetype, "", "type", nil, "Filetype (eg. svg or image/svg+xml), detected from the content by default")
	f.AddOpt(Items{&matches}, "", "match", nil, "Filename matching pattern, only matching filenames in directories are processed")
	f.AddOpt(Items{&commands}, "", "cmd", nil, "External leanifier for a filetype (eg. image/png='optipng -o7 -')")
	f.AddOpt(&recursive, "r", "recursive", false, "Recursively leanify directories")
	f.AddOpt(&hidden, "a", "all", false, "Leanify all files, including hidden files and files in hidden directories")
	f.AddOpt(&list, "l", "list", false, "List all accepted filetypes")
	f.AddOpt(&iterations, "i", "iteration", 15, "More iterations produce better results but take longer")
	f.AddOpt(&maxDepth, "d", "max_depth", math.MaxInt32, "Maximum recursion depth of embedded files")
	f.AddOpt(&quiet, "q", "quiet", false, "Quiet mode to suppress all output")
	f.AddOpt(argp.Count{I: &verbose}, "v", "verbose", nil, "Verbose mode, set twice for more verbosity")
	f.AddOpt(&watch, "w", "watch", false, "Watch files and leanify upon changes")
	f.AddOpt(&preserve, "p", "preserve", []string{"mode", "timestamps"}, "Preserve options (mode, timestamps, all)")
	f.AddOpt(&version, "", "version", false, "Version")

	f.AddOpt(&xmlLeanifier.KeepComments, "", "xml-keep-comments", false, "Preserve all comments")
	f.AddOpt(&gzipLeanifier.Level, "", "gzip-level", 0, "Compression level from 1 to 9, 0 is best compression")
	f.Parse()

	if version {
		if !quiet {
			fmt.Printf("leanify %s\n", Version)
		}
		return 0
	}

	if list {
		if !quiet {
			n := 0
			var keys []string
			for k := range extMap {
				keys = append(keys, k)
				if n < len(k) {
					n = len(k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Println(k + strings.Repeat(" ", n-len(k)+2) + extMap[k])
			}
		}
		return 0
	}

	logger = newLogger(quiet, verbose)
	defer logger.Sync()

	if len(inputs) == 1 && inputs[0] == "-" {
		inputs = inputs[:0] // stdin
	}
	useStdin := len(inputs) == 0

	// compile matches
	var err error
	if 0 < len(matches) {
		matchesRegexp = make([]*regexp.Regexp, len(matches))
		for i, pattern := range matches {
			if matchesRegexp[i], err = compilePattern(pattern); err != nil {
				logger.Error("invalid pattern", zap.String("pattern", pattern), zap.Error(err))
				return 1
			}
		}
	}

	if slash := strings.Index(mimetype, "/"); slash == -1 && 0 < len(mimetype) {
		var ok bool
		if mimetype, ok = extMap[mimetype]; !ok {
			logger.Error("unknown filetype", zap.String("type", mimetype))
			return 1
		}
	}

	if useStdin && (watch || recursive) {
		if watch {
			logger.Error("--watch doesn't work with stdin, specify input")
		}
		if recursive {
			logger.Error("--recursive doesn't work with stdin, specify input")
		}
		return 1
	}
	if iterations < 1 {
		logger.Error("--iteration must be positive")
		return 1
	} else if maxDepth < 1 {
		logger.Error("--max_depth must be positive")
		return 1
	}
	for _, option := range preserve {
		switch option {
		case "all":
			preserveMode = true
			preserveTimestamps = true
		case "mode":
			preserveMode = true
		case "timestamps":
			preserveTimestamps = true
		default:
			logger.Warn("unknown preserve option", zap.String("option", option))
		}
	}

	////////////////

	for i, input := range inputs {
		if input == "-" {
			logger.Error("cannot mix files and stdin as input")
			return 1
		}
		inputs[i] = filepath.Clean(input)
	}

	var tasks []Task
	var roots []string
	if useStdin {
		tasks = append(tasks, Task{})
		logger.Info("leanify from stdin to stdout")
	} else {
		fsys := NewFS()
		tasks, roots, err = createTasks(fsys, inputs)
		if err != nil {
			logger.Error("cannot create tasks", zap.Error(err))
			return 1
		}
	}

	////////////////

	m = leanify.New()
	m.MaxDepth = maxDepth
	m.Logger = logger
	m.Add("text/xml", &xmlLeanifier)
	m.Add("application/xml", &xmlLeanifier)
	m.Add("application/rss+xml", &xmlLeanifier)
	m.Add("image/svg+xml", &xmlLeanifier)
	m.Add("application/x-fictionbook+xml", &xmlLeanifier)
	m.Add("application/gzip", &gzipLeanifier)
	m.Add("application/x-gzip", &gzipLeanifier)
	for _, command := range commands {
		mediatype, cmd, ok := strings.Cut(command, "=")
		if !ok {
			logger.Error("external leanifier must be given as filetype=command", zap.String("cmd", command))
			return 1
		}
		if ext, ok := extMap[mediatype]; ok {
			mediatype = ext
		}
		if err := m.AddCmd(mediatype, cmd); err != nil {
			logger.Error("invalid external leanifier", zap.String("cmd", command), zap.Error(err))
			return 1
		}
	}

	fails := 0
	start := time.Now()
	if !watch && (len(tasks) == 1 || 0 < verbose) {
		for _, task := range tasks {
			if ok := leanifyTask(task); !ok {
				fails++
			}
		}
	} else {
		numWorkers := runtime.NumCPU()
		if 0 < verbose {
			numWorkers = 1
		} else if numWorkers < 4 {
			numWorkers = 4
		}

		chanTasks := make(chan Task, 20)
		chanFails := make(chan int, numWorkers)
		for n := 0; n < numWorkers; n++ {
			go leanifyWorker(chanTasks, chanFails)
		}

		if !watch {
			for _, task := range tasks {
				chanTasks <- task
			}
		} else {
			watcher, err := NewWatcher(recursive)
			if err != nil {
				logger.Error("cannot watch", zap.Error(err))
				return 1
			}
			defer watcher.Close()
			changes := watcher.Run()

			for _, filename := range inputs {
				if err := watcher.AddPath(filename); err != nil {
					logger.Error("cannot watch", zap.String("path", filename), zap.Error(err))
					return 1
				}
			}

			for _, task := range tasks {
				chanTasks <- task
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			for changes != nil {
				select {
				case <-c:
					watcher.Close()
				case file, ok := <-changes:
					if !ok {
						changes = nil
						break
					}
					file = filepath.Clean(file)
					if !fileMatches(file) {
						break
					}
					chanTasks <- Task{commonRoot(roots, file), file}
				}
			}
		}

		close(chanTasks)
		for n := 0; n < numWorkers; n++ {
			fails += <-chanFails
		}
	}

	if !watch {
		logger.Info("finished", zap.Duration("duration", time.Since(start)))
	}
	if 0 < fails {
		return 1
	}
	return 0
}

func newLogger(quiet bool, verbose int) *zap.Logger {
	level := zapcore.WarnLevel
	if quiet {
		level = zapcore.ErrorLevel
	} else if 1 < verbose {
		level = zapcore.DebugLevel
	} else if 0 < verbose {
		level = zapcore.InfoLevel
	}

	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = ""
	config.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func leanifyWorker(chanTasks <-chan Task, chanFails chan<- int) {
	fails := 0
	for task := range chanTasks {
		if ok := leanifyTask(task); !ok {
			fails++
		}
	}
	chanFails <- fails
}

// compilePattern returns a regular expression for a glob pattern, or for the pattern itself when prefixed by ~.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) == 0 || pattern[0] != '~' {
		if strings.HasPrefix(pattern, `\~`) {
			pattern = pattern[1:]
		}
		pattern = regexp.QuoteMeta(pattern)
		pattern = strings.ReplaceAll(pattern, `\*\*`, `.*`)
		pattern = strings.ReplaceAll(pattern, `\*`, fmt.Sprintf(`[^%c]*`, filepath.Separator))
		pattern = strings.ReplaceAll(pattern, `\?`, fmt.Sprintf(`[^%c]?`, filepath.Separator))
		pattern = "^" + pattern + "$"
	} else {
		pattern = pattern[1:]
	}
	return regexp.Compile(pattern)
}

// fileMatches returns true for files found in directories that should be leanified.
func fileMatches(filename string) bool {
	if 0 < len(matchesRegexp) {
		match := false
		base := filepath.Base(filename)
		for _, re := range matchesRegexp {
			if re.MatchString(base) {
				match = true
				break
			}
		}
		return match
	} else if mimetype != "" {
		return true
	}

	_, ok := extMap[fileExt(filename)]
	return ok
}

func fileExt(filename string) string {
	ext := filepath.Ext(filename)
	if 0 < len(ext) {
		ext = ext[1:]
	}
	return strings.ToLower(ext)
}

// commonRoot returns the root that is closest to file.
func commonRoot(roots []string, file string) string {
	root := ""
	for _, path := range roots {
		pathRel, err1 := filepath.Rel(path, file)
		rootRel, err2 := filepath.Rel(root, file)
		if err2 != nil || err1 == nil && len(pathRel) < len(rootRel) {
			root = path
		}
	}
	return root
}

func createTasks(fsys fs.FS, inputs []string) ([]Task, []string, error) {
	tasks := []Task{}
	roots := []string{}
	for _, input := range inputs {
		root := filepath.Clean(filepath.Dir(input))
		input = filepath.Clean(input)

		// follow and dereference symlinks
		info, err := fs.Stat(fsys, input)
		if err != nil {
			return nil, nil, err
		}

		if info.Mode().IsRegular() {
			// explicitly named files are always leanified
			tasks = append(tasks, Task{root, input})
		} else if info.Mode().IsDir() {
			if !recursive {
				logger.Warn("--recursive not specified, omitting directory", zap.String("path", input))
				continue
			}

			var walkFn func(string, fs.DirEntry, error) error
			walkFn = func(input string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				} else if d.Name() == "." || d.Name() == ".." {
					return nil
				} else if d.Name() == "" || !hidden && d.Name()[0] == '.' {
					if d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}

				if d.Type()&os.ModeSymlink != 0 {
					info, err := fs.Stat(fsys, input)
					if err != nil {
						return err
					}
					if info.IsDir() {
						return fs.WalkDir(fsys, input, walkFn)
					}
					d = fs.FileInfoToDirEntry(info)
				}

				if d.Type().IsRegular() && fileMatches(input) {
					tasks = append(tasks, Task{root, input})
				}
				return nil
			}
			if err := fs.WalkDir(fsys, input, walkFn); err != nil {
				return nil, nil, err
			}
			roots = append(roots, root)
		} else {
			return nil, nil, fmt.Errorf("not a file or directory %s", input)
		}
	}
	return tasks, roots, nil
}

// leanifyBuffer leanifies b repeatedly until it stops shrinking or the number of iterations is reached, and returns
// the new length.
func leanifyBuffer(fileMimetype string, b []byte, iterations int) (int, error) {
	size := len(b)
	for i := 0; i < iterations; i++ {
		n, err := m.Leanify(fileMimetype, b[:size], 0)
		if err != nil {
			return size, err
		} else if size <= n {
			break
		}
		size = n
	}
	return size, nil
}

func leanifyTask(t Task) bool {
	srcName := t.src
	if srcName == "" {
		srcName = "stdin"
	}
	log := logger.With(zap.String("file", srcName))

	fileMimetype := mimetype
	if fileMimetype == "" {
		// detected from content otherwise
		fileMimetype = extMap[fileExt(t.src)]
	}

	var srcInfo os.FileInfo
	if t.src != "" {
		var err error
		if srcInfo, err = os.Stat(t.src); err != nil {
			log.Error("cannot stat", zap.Error(err))
			return false
		}
	}

	fr, err := openInputFile(t.src)
	if err != nil {
		log.Error("cannot open", zap.Error(err))
		return false
	}
	b, err := io.ReadAll(fr)
	fr.Close()
	if err != nil {
		log.Error("cannot read", zap.Error(err))
		return false
	}

	success := true
	startTime := time.Now()
	n, err := leanifyBuffer(fileMimetype, b, iterations)
	if err == leanify.ErrNotExist {
		log.Warn("unsupported filetype", zap.String("type", fileMimetype))
		success = fileMimetype == ""
	} else if err != nil {
		log.Error("cannot leanify", zap.Error(err))
		success = false
	}
	dur := time.Since(startTime)

	rLen, wLen := len(b), n
	if t.src == "" {
		if _, err := os.Stdout.Write(b[:n]); err != nil {
			log.Error("cannot write", zap.Error(err))
			return false
		}
	} else if wLen < rLen {
		if err := replaceFile(t.src, b[:n]); err != nil {
			log.Error("cannot write", zap.Error(err))
			return false
		}
		preserveAttributes(srcInfo, t.src)
	}

	if !quiet && t.src != "" {
		speed := "Inf MB"
		if 0 < dur {
			speed = humanize.Bytes(uint64(float64(rLen) / dur.Seconds()))
		}
		ratio := 1.0
		if 0 < rLen {
			ratio = float64(wLen) / float64(rLen)
		}
		fmt.Printf("(%9v, %6v, %6v, %5.1f%%, %6v/s) - %s\n", dur, humanize.Bytes(uint64(rLen)), humanize.Bytes(uint64(wLen)), ratio*100, speed, srcName)
	}
	return success
}

func preserveAttributes(srcInfo os.FileInfo, dst string) {
	if preserveMode {
		if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
			logger.Warn("cannot preserve mode", zap.String("file", dst), zap.Error(err))
		}
	}
	if preserveTimestamps {
		if err := os.Chtimes(dst, atime.Get(srcInfo), srcInfo.ModTime()); err != nil {
			logger.Warn("cannot preserve timestamps", zap.String("file", dst), zap.Error(err))
		}
	}
}
