package devserver

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var folderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`folders/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
}

// extractFolderID pulls the folder id out of a share link; anything else is
// taken as a bare id.
func extractFolderID(folderURL string) string {
	for _, re := range folderIDPatterns {
		if m := re.FindStringSubmatch(folderURL); m != nil {
			return m[1]
		}
	}
	return strings.TrimSpace(folderURL)
}

// sourceFile is one image sitting in a simulated remote folder
type sourceFile struct {
	index    int
	sourceID string
	name     string
	size     int64
	mimeType string
}

// listFolder derives a folder's contents from its id, so the same link
// always yields the same images. Ids starting with "empty" have none.
func listFolder(folderID string, maxImages int) []sourceFile {
	if folderID == "" || strings.HasPrefix(folderID, "empty") {
		return nil
	}

	h := fnv.New32a()
	h.Write([]byte(folderID))
	seed := h.Sum32()

	count := 1 + int(seed%uint32(maxImages))
	files := make([]sourceFile, count)
	for i := range files {
		ext, mime := "jpg", "image/jpeg"
		if (int(seed)+i)%3 == 0 {
			ext, mime = "png", "image/png"
		}
		files[i] = sourceFile{
			index:    i,
			sourceID: fmt.Sprintf("%s-%03d", folderID, i),
			name:     fmt.Sprintf("%s_%03d.%s", folderID, i, ext),
			size:     int64(50*1024 + (int(seed>>3)+i*7919)%(4*1024*1024)),
			mimeType: mime,
		}
	}
	return files
}

// Image is a catalog entry as served by the /images endpoints
type Image struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	SourceID        string `json:"google_drive_id"`
	Size            int64  `json:"size"`
	MimeType        string `json:"mime_type"`
	StoragePath     string `json:"storage_path"`
	StorageProvider string `json:"storage_provider"`
}

// Catalog is the in-memory image metadata table
type Catalog struct {
	mu       sync.RWMutex
	images   map[int]*Image
	bySource map[string]int
	nextID   int
	provider string
}

// NewCatalog creates an empty catalog storing images with provider
func NewCatalog(provider string) *Catalog {
	return &Catalog{
		images:   make(map[int]*Image),
		bySource: make(map[string]int),
		nextID:   1,
		provider: provider,
	}
}

// Add stores f; it fails when the same source file was imported before.
func (c *Catalog) Add(f sourceFile) (*Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bySource[f.sourceID]; exists {
		return nil, fmt.Errorf("image already exists: %s", f.sourceID)
	}

	img := &Image{
		ID:              c.nextID,
		Name:            f.name,
		SourceID:        f.sourceID,
		Size:            f.size,
		MimeType:        f.mimeType,
		StoragePath:     fmt.Sprintf("images/%s_%s", uuid.NewString(), f.name),
		StorageProvider: c.provider,
	}
	c.nextID++
	c.images[img.ID] = img
	c.bySource[f.sourceID] = img.ID
	return img, nil
}

func (c *Catalog) Get(id int) (*Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[id]
	return img, ok
}

func (c *Catalog) Delete(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[id]
	if !ok {
		return false
	}
	delete(c.images, id)
	delete(c.bySource, img.SourceID)
	return true
}

// Page returns images newest first; totalPages is 0 for an empty catalog.
func (c *Catalog) Page(page, perPage int) (images []*Image, total, totalPages int) {
	c.mu.RLock()
	all := make([]*Image, 0, len(c.images))
	for _, img := range c.images {
		all = append(all, img)
	}
	c.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total = len(all)
	totalPages = (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= total {
		return []*Image{}, total, totalPages
	}
	end := min(start+perPage, total)
	return all[start:end], total, totalPages
}

// Stats returns image count, byte total and per-provider counts
func (c *Catalog) Stats() (count int, totalBytes int64, providers map[string]int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers = make(map[string]int)
	for _, img := range c.images {
		totalBytes += img.Size
		providers[img.StorageProvider]++
	}
	return len(c.images), totalBytes, providers
}
