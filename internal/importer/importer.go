package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/logger"
	"github.com/luca-finance/luca/internal/model"
)

var (
	// ErrUnsupportedFileType is returned for files that are not CSV exports.
	ErrUnsupportedFileType = errors.New("file type not supported yet, export a CSV instead")
	// ErrNoTransactions is returned when a file parsed to zero usable rows.
	ErrNoTransactions = errors.New("no transactions found")
)

// Parser converts a bank export into transactions.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error)
	Source() model.Source
}

// Registry holds parsers keyed by source.
type Registry struct {
	parsers map[model.Source]Parser
}

// File is one uploaded or scanned file. Content is read from Path when nil.
type File struct {
	Name    string
	Path    string
	Size    int64
	Content []byte
}

// FileResult is the self-contained outcome of parsing one file.
type FileResult struct {
	Name         string
	Detection    Detection
	Transactions []model.Transaction
	Err          error
}

// Source returns the detected source of the file.
func (r FileResult) Source() model.Source { return r.Detection.Format.Source() }

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.Source]Parser)}
}

// Register adds a parser. Panics on duplicate source.
func (r *Registry) Register(p Parser) {
	key := model.Source(strings.ToLower(string(p.Source())))
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser source: " + string(key))
	}
	r.parsers[key] = p
}

// Get returns the parser for source, or nil.
func (r *Registry) Get(source model.Source) Parser {
	return r.parsers[model.Source(strings.ToLower(string(source)))]
}

// DefaultRegistry returns a registry with all built-in parsers using the
// built-in rule table.
func DefaultRegistry() *Registry {
	return RegistryWith(categorize.Default())
}

// RegistryWith returns a registry with all built-in parsers using c.
func RegistryWith(c *categorize.Categorizer) *Registry {
	r := NewRegistry()
	r.Register(&CaixaBankParser{Categorizer: c})
	r.Register(&RevolutParser{Categorizer: c})
	return r
}

// Parse detects the format of rawText and parses it with the default
// registry. Unsupported files return ErrUnsupportedFileType.
func Parse(ctx context.Context, rawText, filename string) ([]model.Transaction, error) {
	res := DefaultRegistry().ParseFile(ctx, File{Name: filename, Content: []byte(rawText)})
	if res.Err != nil && !errors.Is(res.Err, ErrNoTransactions) {
		return nil, res.Err
	}
	return res.Transactions, nil
}

// ParseFile detects and parses a single file. It never panics on file
// content; read errors and unsupported types are reported in the result.
func (r *Registry) ParseFile(ctx context.Context, f File) FileResult {
	res := FileResult{Name: f.Name}

	content := f.Content
	if content == nil && f.Path != "" {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			res.Err = fmt.Errorf("reading %s: %w", f.Name, err)
			return res
		}
		content = data
	}

	res.Detection = Detect(f.Name, string(content))
	log := logger.FromContext(ctx).With().
		Str("file", f.Name).
		Str("format", res.Detection.Format.String()).
		Str("signal", string(res.Detection.Signal)).
		Logger()

	if res.Detection.Format == FormatUnsupported {
		res.Err = fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFileType)
		return res
	}
	if res.Detection.Signal == SignalFallback {
		log.Warn().Msg("no bank marker found, assuming caixabank")
	}

	p := r.Get(res.Detection.Format.Source())
	if p == nil {
		res.Err = fmt.Errorf("no parser for source %s", res.Detection.Format.Source())
		return res
	}

	txns, err := p.Parse(logger.WithContext(ctx, log), bytes.NewReader(content))
	if err != nil {
		res.Err = fmt.Errorf("parsing %s: %w", f.Name, err)
		return res
	}
	if len(txns) == 0 {
		res.Err = fmt.Errorf("%s: %w", f.Name, ErrNoTransactions)
		return res
	}

	log.Info().Int("transactions", len(txns)).Msg("parsed file")
	res.Transactions = txns
	return res
}

// ParseFiles parses every file concurrently. Results arrive in completion
// order and the channel is closed once all files are done.
func (r *Registry) ParseFiles(ctx context.Context, files []File) <-chan FileResult {
	out := make(chan FileResult, len(files))

	var wg sync.WaitGroup
	for _, f := range files {
		wg.Add(1)
		go func(f File) {
			defer wg.Done()
			out <- r.ParseFile(ctx, f)
		}(f)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ProcessedDir is the subdirectory of the import directory that holds
// imported exports.
const ProcessedDir = "processed"

// Scan returns the files in dir, skipping dotfiles and subdirectories.
// Non-CSV files are included so the caller can report them as unsupported.
func Scan(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, File{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
