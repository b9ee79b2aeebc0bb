package document

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"
)

// Fetcher retrieves resource bytes by reference.
type Fetcher interface {
	Fetch(ref string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ref string) ([]byte, error) { return f(ref) }

// DirFetcher reads resources from a file system, resolving relative
// references against Base. Network references are refused: the layout core
// never opens connections.
type DirFetcher struct {
	FS   fs.FS
	Base string
}

// NewDirFetcher returns a fetcher rooted at fsys.
func NewDirFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{FS: fsys, Base: "."}
}

// Fetch reads the file a reference points to.
func (f *DirFetcher) Fetch(ref string) ([]byte, error) {
	name, err := f.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	return data, nil
}

// resolve turns a reference into a file system path.
func (f *DirFetcher) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", ref, err)
	}
	switch u.Scheme {
	case "", "file":
	default:
		return "", fmt.Errorf("fetch %s: scheme %q not supported", ref, u.Scheme)
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(f.Base, p)
	}
	p = strings.TrimPrefix(path.Clean(p), "/")
	if p == "" {
		p = "."
	}
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("fetch %s: path escapes the root", ref)
	}
	return p, nil
}
