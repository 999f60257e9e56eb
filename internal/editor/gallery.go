package editor

import (
	"encoding/base64"
	"mime"
	"path/filepath"
	"sync"
)

// NamedFile is a newly selected image: its original filename and raw bytes.
type NamedFile struct {
	Name string
	Data []byte
}

// ImageAttachment pairs an image's binary payload (present only when newly
// selected in this session) with a preview URL. On hydrate the preview is a
// media-base URL and Data stays nil; the bytes are never fetched back.
type ImageAttachment struct {
	Name    string `json:"name"`
	Data    []byte `json:"-"`
	Preview string `json:"preview"`
}

// HasImage reports whether an attachment is present, either as fresh bytes
// or as an existing remote URL.
func (a ImageAttachment) HasImage() bool {
	return len(a.Data) > 0 || a.Preview != ""
}

// Gallery holds pending gallery images as two parallel, index-aligned slices:
// the files and their decoded previews. Every mutation preserves alignment.
type Gallery struct {
	Files    []NamedFile
	Previews []string
}

// Add appends the given files and decodes each to a data-URL preview. Slots
// for both slices are reserved at selection time and each decode writes into
// its own fixed index, so preview order always matches selection order no
// matter which decode finishes first.
func (g *Gallery) Add(files []NamedFile) {
	if len(files) == 0 {
		return
	}

	base := len(g.Files)
	g.Files = append(g.Files, files...)
	g.Previews = append(g.Previews, make([]string, len(files))...)

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(slot int, f NamedFile) {
			defer wg.Done()
			g.Previews[slot] = dataURL(f)
		}(base+i, f)
	}
	wg.Wait()
}

// Remove drops the file and its preview at index i, keeping the remaining
// entries index-aligned. Out-of-range indices are ignored.
func (g *Gallery) Remove(i int) {
	if i < 0 || i >= len(g.Files) {
		return
	}
	g.Files = append(g.Files[:i], g.Files[i+1:]...)
	g.Previews = append(g.Previews[:i], g.Previews[i+1:]...)
}

// Len returns the number of pending gallery images.
func (g *Gallery) Len() int {
	return len(g.Files)
}

// dataURL encodes a file as a base64 data URL for preview rendering.
func dataURL(f NamedFile) string {
	ct := mime.TypeByExtension(filepath.Ext(f.Name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
