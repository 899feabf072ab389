package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/internal/ports"
)

// MaxNameLength is the longest file name a peer may announce, in bytes.
const MaxNameLength = 255

// OutputStore implements ports.OutputStore on a local directory.
// A name is granted to one open handle at a time.
type OutputStore struct {
	dir    string
	suffix string

	mu   sync.Mutex
	open map[string]struct{}
}

// NewOutputStore creates a store rooted at dir. Every file gets suffix appended
// to the announced name.
func NewOutputStore(dir, suffix string) *OutputStore {
	return &OutputStore{
		dir:    dir,
		suffix: suffix,
		open:   make(map[string]struct{}),
	}
}

// Dir returns the output directory.
func (s *OutputStore) Dir() string {
	return s.dir
}

// Resolve maps an announced name to its on-disk path, rejecting anything that
// would land outside the output directory.
func (s *OutputStore) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", domain.ErrInvalidFileName)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name longer than %d bytes", domain.ErrInvalidFileName, MaxNameLength)
	}
	if strings.ContainsRune(name, 0) || strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFileName, name)
	}
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", fmt.Errorf("%w: %q escapes the output directory", domain.ErrInvalidFileName, name)
	}
	return filepath.Join(s.dir, rel+s.suffix), nil
}

// Open implements ports.OutputStore.
func (s *OutputStore) Open(name string, truncate bool) (ports.OutputFile, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, busy := s.open[path]; busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", domain.ErrFileInUse, name)
	}
	s.open[path] = struct{}{}
	s.mu.Unlock()

	f, err := s.openFile(path, truncate)
	if err != nil {
		s.release(path)
		return nil, err
	}
	return &outputFile{store: s, name: name, path: path, f: f}, nil
}

func (s *OutputStore) openFile(path string, truncate bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0o644)
}

// InUse reports whether a handle for name is currently open.
func (s *OutputStore) InUse(name string) bool {
	path, err := s.Resolve(name)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.open[path]
	return busy
}

func (s *OutputStore) release(path string) {
	s.mu.Lock()
	delete(s.open, path)
	s.mu.Unlock()
}

type outputFile struct {
	store *OutputStore
	name  string
	path  string

	once sync.Once
	f    *os.File
}

func (o *outputFile) Write(p []byte) (int, error) {
	return o.f.Write(p)
}

func (o *outputFile) Name() string { return o.name }
func (o *outputFile) Path() string { return o.path }

func (o *outputFile) Close() error {
	var err error
	o.once.Do(func() {
		err = o.f.Close()
		o.store.release(o.path)
	})
	return err
}

var _ ports.OutputStore = (*OutputStore)(nil)
