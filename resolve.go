package httpd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelreyna/ez-httpd/internal/wire"
)

// Kind classifies what a request target resolved to.
type Kind int

const (
	Missing Kind = iota
	Forbidden
	UnknownType
	Static
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Forbidden:
		return "forbidden"
	case UnknownType:
		return "unknown-type"
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "invalid"
	}
}

// Resource is the outcome of resolving a request target.
type Resource struct {
	Kind Kind
	// Name is the file on disk. Set for every kind but Missing.
	Name string
	// ContentType is the content-type header line of a Static resource.
	ContentType string
	// Query is the raw query component, '?' included, or empty.
	Query string
}

// DefaultIndex lists the documents probed, in order, for the target "/".
var DefaultIndex = []string{"index.html", "index.htm", "index.php"}

var contentTypes = map[string]string{
	".html": wire.ContentTypeHTML,
	".htm":  wire.ContentTypeHTML,
	".jpg":  wire.ContentTypeJPEG,
	".gif":  wire.ContentTypeGIF,
	".png":  wire.ContentTypePNG,
}

const scriptExt = ".php"

// readable reports whether the server may read path.
var readable = canRead

// Resolver maps request targets to files below Root.
//
// Targets are not normalized: "..", doubled slashes and percent escapes reach the filesystem
// as sent. Set Confine when serving anything but trusted clients.
type Resolver struct {
	// Root is the document root, the working directory when empty.
	Root string
	// Index overrides DefaultIndex.
	Index []string
	// Confine rejects targets that would leave Root with Forbidden.
	Confine bool
}

// Resolve classifies target. Missing wins over Forbidden, which wins over UnknownType.
func (rs *Resolver) Resolve(target string) Resource {
	var name string
	if target == "/" {
		for _, idx := range rs.index() {
			if _, err := os.Stat(rs.join(idx)); err == nil {
				name = idx
				break
			}
		}
	} else {
		name = strings.TrimPrefix(target, "/")
	}

	var query string
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name, query = name[:i], name[i:]
	}
	if name == "" {
		return Resource{Kind: Missing, Query: query}
	}
	if rs.Confine && !filepath.IsLocal(filepath.FromSlash(name)) {
		return Resource{Kind: Forbidden, Name: name, Query: query}
	}

	res := Resource{Name: rs.join(name), Query: query}

	fi, err := os.Stat(res.Name)
	if err != nil {
		res.Kind = Missing
		return res
	}
	if !readable(res.Name) || fi.IsDir() {
		res.Kind = Forbidden
		return res
	}

	ext := strings.ToLower(extension(name))
	if ct, ok := contentTypes[ext]; ok {
		res.Kind = Static
		res.ContentType = ct
		return res
	}
	if ext == scriptExt {
		res.Kind = Dynamic
		return res
	}
	res.Kind = UnknownType
	return res
}

func (rs *Resolver) index() []string {
	if len(rs.Index) > 0 {
		return rs.Index
	}
	return DefaultIndex
}

func (rs *Resolver) join(name string) string {
	if rs.Root == "" || rs.Root == "." {
		return name
	}
	return strings.TrimSuffix(rs.Root, "/") + "/" + name
}

// extension is everything from the last '.' of name, or "" when there is none.
func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
