package extractor

import (
	"strings"
	"time"

	"bunkrfetch/internal"
	"bunkrfetch/utils"
)

// itemDateLayout is the fixed date format shown next to each album item
const itemDateLayout = "15:04:05 02/01/2006"

// AlbumExtractor resolves album pages into lazy sequences of file
// descriptors, and media pages as degenerate one-item albums. One
// extractor per album; resolution is sequential because each item already
// costs several network round-trips.
type AlbumExtractor struct {
	router   *Router
	resolver *FileResolver
	offset   int
}

// NewAlbumExtractor creates an extractor on top of a router
func NewAlbumExtractor(router *Router) *AlbumExtractor {
	return &AlbumExtractor{
		router:   router,
		resolver: NewFileResolver(router),
	}
}

// NewAlbumExtractorWithResolver creates an extractor with a custom file
// resolver. Tests use this to point the resolution API at a local server.
func NewAlbumExtractorWithResolver(router *Router, resolver *FileResolver) *AlbumExtractor {
	return &AlbumExtractor{router: router, resolver: resolver}
}

// Skip sets the number of leading album items to pass over. Skipped items
// never touch the network.
func (e *AlbumExtractor) Skip(n int) int {
	e.offset = n
	return n
}

// albumItem is one unresolved entry parsed from the album page
type albumItem struct {
	pageURL string
	fields  []string
}

// FileIterator lazily resolves album items on demand. Resolution work for
// an item happens only when Next reaches it; per-item failures are logged
// and skipped, except the fatal domain-exhaustion condition which stops
// iteration and is reported by Err.
type FileIterator struct {
	ready    []*internal.FileDescriptor
	items    []albumItem
	resolver *FileResolver

	readyPos int
	pos      int
	cur      *internal.FileDescriptor
	err      error
}

// Next advances to the next resolvable file. It returns false when the
// sequence is exhausted or a fatal error occurred.
func (it *FileIterator) Next() bool {
	if it.err != nil {
		return false
	}

	if it.readyPos < len(it.ready) {
		it.cur = it.ready[it.readyPos]
		it.readyPos++
		return true
	}

	for it.pos < len(it.items) {
		item := it.items[it.pos]
		it.pos++

		file, err := it.resolveItem(item)
		if err != nil {
			if internal.IsFatal(err) {
				it.err = err
				return false
			}
			internal.LogError("skipping %s: %v", item.pageURL, err)
			continue
		}

		it.cur = file
		return true
	}

	return false
}

// File returns the descriptor produced by the last successful Next call
func (it *FileIterator) File() *internal.FileDescriptor {
	return it.cur
}

// Err returns the fatal error that stopped iteration, if any
func (it *FileIterator) Err() error {
	return it.err
}

// Reset rewinds the iterator to its start. Already-resolved items are
// resolved again on the next pass.
func (it *FileIterator) Reset() {
	it.readyPos = 0
	it.pos = 0
	it.cur = nil
	it.err = nil
}

// resolveItem resolves one item and merges in the album page's per-item
// text fields: the trailing three are display name, size and date.
func (it *FileIterator) resolveItem(item albumItem) (*internal.FileDescriptor, error) {
	file, err := it.resolver.ResolveFile(item.pageURL)
	if err != nil {
		return nil, err
	}

	if n := len(item.fields); n >= 3 {
		if file.Name == "" {
			file.Name = item.fields[n-3]
		}
		file.Size = item.fields[n-2]
		if date, err := time.Parse(itemDateLayout, item.fields[n-1]); err == nil {
			file.Date = date
		}
	}

	return file, nil
}

// FetchAlbum fetches an album page and returns a lazy file sequence plus
// album metadata. The metadata count is the raw item-block count from the
// page, before the offset applies and before any per-item failures; that
// mismatch with the number of yielded files is intentional.
func (e *AlbumExtractor) FetchAlbum(albumID string) (*FileIterator, *internal.AlbumMetadata, error) {
	resp, err := e.router.Request(e.router.Root()+"/a/"+albumID, nil)
	if err != nil {
		return nil, nil, err
	}
	page, err := utils.ParsePage(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, nil, internal.NewBunkrError(0, "failed to parse album page", internal.ErrInvalidResponse).
			WithContext("album_id", albumID).WithContext("error", err.Error())
	}

	blocks := page.ItemBlocks()
	items := make([]albumItem, 0, len(blocks))
	for _, block := range blocks {
		pageURL := block.Href
		if strings.HasPrefix(pageURL, "/") {
			pageURL = e.router.Root() + pageURL
		}
		items = append(items, albumItem{pageURL: pageURL, fields: block.Fields})
	}

	meta := &internal.AlbumMetadata{
		AlbumID:   albumID,
		AlbumName: page.OpenGraphTitle(),
		AlbumSize: page.AlbumSize(),
		Count:     len(items),
	}

	start := e.offset
	if start > len(items) {
		start = len(items)
	}

	return &FileIterator{
		items:    items[start:],
		resolver: e.resolver,
	}, meta, nil
}

// FetchMedia treats one media page URL as a one-item album. Resolution
// failures degrade to an empty sequence instead of propagating, so a
// single dead link never raises past the pipeline boundary; only the
// fatal domain-exhaustion condition still does.
func (e *AlbumExtractor) FetchMedia(pageURL string) (*FileIterator, *internal.AlbumMetadata, error) {
	meta := &internal.AlbumMetadata{Count: 1}

	file, err := e.resolver.ResolveFile(pageURL)
	if err != nil {
		if internal.IsFatal(err) {
			return nil, nil, err
		}
		internal.LogError("%s: %v", pageURL, err)
		return &FileIterator{}, meta, nil
	}

	return &FileIterator{ready: []*internal.FileDescriptor{file}}, meta, nil
}
