// Package catalog lists the background images a task can be decorated
// with. Images are described by a nested manifest mirroring the image
// directory tree.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// URLPrefix is prepended to manifest paths.
const URLPrefix = "/images"

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

type Image struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Manifest is one directory level: its images plus named subdirectories.
type Manifest struct {
	Images []Image
	Dirs   map[string]*Manifest
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	out := map[string]any{"images": nonNil(m.Images)}
	for name, sub := range m.Dirs {
		out[name] = sub
	}
	return json.Marshal(out)
}

func nonNil(images []Image) []Image {
	if images == nil {
		return []Image{}
	}
	return images
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Manifest{}
	for key, val := range raw {
		if key == "images" {
			if err := json.Unmarshal(val, &m.Images); err != nil {
				return fmt.Errorf("images: %w", err)
			}
			continue
		}
		// Anything that is not an object is not a directory.
		if len(val) == 0 || val[0] != '{' {
			continue
		}
		sub := &Manifest{}
		if err := json.Unmarshal(val, sub); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if m.Dirs == nil {
			m.Dirs = map[string]*Manifest{}
		}
		m.Dirs[key] = sub
	}
	return nil
}

// Paths flattens the manifest into image paths, directories in name order.
func (m *Manifest) Paths() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, img := range m.Images {
		out = append(out, img.Path)
	}
	names := make([]string, 0, len(m.Dirs))
	for name := range m.Dirs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		out = append(out, m.Dirs[name].Paths()...)
	}
	return out
}

// Count returns the number of images in the whole tree.
func (m *Manifest) Count() int {
	return len(m.Paths())
}

// LoadManifest decodes a manifest and returns every image path in it.
func LoadManifest(r io.Reader) ([]string, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding image manifest: %w", err)
	}
	return m.Paths(), nil
}

// LoadManifestFile is LoadManifest on a file.
func LoadManifestFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening image manifest: %w", err)
	}
	defer f.Close()
	return LoadManifest(f)
}

// IsImage reports whether name has a known image extension.
func IsImage(name string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(name)))
}

// Build walks root and describes every image below it. Paths are rooted
// at URLPrefix with forward slashes.
func Build(root string) (*Manifest, error) {
	return build(os.DirFS(root), ".")
}

func build(fsys fs.FS, dir string) (*Manifest, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	m := &Manifest{Images: []Image{}}
	for _, e := range entries {
		rel := path.Join(dir, e.Name())
		switch {
		case e.IsDir():
			sub, err := build(fsys, rel)
			if err != nil {
				return nil, err
			}
			if m.Dirs == nil {
				m.Dirs = map[string]*Manifest{}
			}
			m.Dirs[e.Name()] = sub
		case e.Type().IsRegular() && IsImage(e.Name()):
			m.Images = append(m.Images, Image{Name: e.Name(), Path: path.Join(URLPrefix, rel)})
		}
	}
	return m, nil
}

// ScanDir returns the paths of every image below root.
func ScanDir(root string) ([]string, error) {
	m, err := Build(root)
	if err != nil {
		return nil, err
	}
	return m.Paths(), nil
}

// Random picks one path, or "" when there are none.
func Random(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[rand.IntN(len(paths))]
}
