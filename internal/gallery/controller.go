package gallery

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
)

// Messages produced by the controller's commands. Page and stats results
// carry the sequence number of the request that produced them.

type pageLoadedMsg struct {
	seq    uint64
	page   int
	result domain.CatalogPage
	err    error
}

type statsLoadedMsg struct {
	seq   uint64
	stats domain.CatalogStats
	err   error
}

type imageLoadedMsg struct {
	id  string
	img *domain.ImageRecord
	err error
}

type imageDeletedMsg struct {
	id  string
	err error
}

// Controller owns the gallery view state: the current page, the stats
// card and the selected image. Items and stats load independently, so a
// failure of one never hides the other.
//
// All methods must be called from the bubbletea Update goroutine.
type Controller struct {
	service *Service
	logger  *slog.Logger

	currentPage int
	page        domain.CatalogPage
	pageLoaded  bool
	itemsErr    error
	itemsBusy   bool
	itemSeq     uint64

	stats       domain.CatalogStats
	statsLoaded bool
	statsErr    error
	statsBusy   bool
	statsSeq    uint64

	// stale is set while the view shows cached data the network has not confirmed
	stale bool

	filter  string
	visible []Match

	selectedID string
	selected   *domain.ImageRecord
	selectErr  error

	actionErr error
	notice    string
}

// NewController creates a controller on page 1 with nothing loaded
func NewController(service *Service, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{service: service, logger: logger, currentPage: 1}
}

// === State accessors ===

func (c *Controller) CurrentPage() int { return c.currentPage }

// TotalPages returns the page count of the last committed page, at least 1
func (c *Controller) TotalPages() int {
	return max(c.page.TotalPages, 1)
}

func (c *Controller) Page() domain.CatalogPage      { return c.page }
func (c *Controller) PageLoaded() bool              { return c.pageLoaded }
func (c *Controller) ItemsErr() error               { return c.itemsErr }
func (c *Controller) ItemsLoading() bool            { return c.itemsBusy }
func (c *Controller) Stats() domain.CatalogStats    { return c.stats }
func (c *Controller) StatsLoaded() bool             { return c.statsLoaded }
func (c *Controller) StatsErr() error               { return c.statsErr }
func (c *Controller) StatsLoading() bool            { return c.statsBusy }
func (c *Controller) Stale() bool                   { return c.stale }
func (c *Controller) Selected() *domain.ImageRecord { return c.selected }
func (c *Controller) SelectedID() string            { return c.selectedID }
func (c *Controller) SelectErr() error              { return c.selectErr }
func (c *Controller) ActionErr() error              { return c.actionErr }
func (c *Controller) Notice() string                { return c.notice }
func (c *Controller) FilterQuery() string           { return c.filter }

// Visible returns the current page's items after filtering
func (c *Controller) Visible() []Match { return c.visible }

// CanPrev reports whether a previous page exists
func (c *Controller) CanPrev() bool { return c.currentPage != 1 }

// CanNext reports whether a next page exists
func (c *Controller) CanNext() bool { return c.currentPage < c.TotalPages() }

// === Operations ===

// Restore shows the cached first page and stats until the network answers
func (c *Controller) Restore() bool {
	restored := false
	if page, ok := c.service.CachedPage(1); ok {
		c.currentPage = 1
		c.page = page
		c.pageLoaded = true
		c.applyFilter()
		restored = true
	}
	if stats, ok := c.service.CachedStats(); ok {
		c.stats = stats
		c.statsLoaded = true
		restored = true
	}
	c.stale = restored
	return restored
}

// LoadPage switches to page n and fetches its items and the stats.
// Results of earlier loads are ignored once they arrive.
func (c *Controller) LoadPage(n int) tea.Cmd {
	c.currentPage = max(n, 1)
	c.itemSeq++
	c.statsSeq++
	c.itemsBusy = true
	c.statsBusy = true

	return tea.Batch(c.fetchPage(c.itemSeq, c.currentPage), c.fetchStats(c.statsSeq))
}

// Next loads the following page, if any
func (c *Controller) Next() tea.Cmd {
	if !c.CanNext() {
		return nil
	}
	return c.LoadPage(min(c.TotalPages(), c.currentPage+1))
}

// Prev loads the preceding page, if any
func (c *Controller) Prev() tea.Cmd {
	if !c.CanPrev() {
		return nil
	}
	return c.LoadPage(max(1, c.currentPage-1))
}

// Refresh reloads the current page
func (c *Controller) Refresh() tea.Cmd {
	return c.LoadPage(c.currentPage)
}

// OnImportCompleted is the completion bus subscriber: the catalog changed,
// so cached pages are dropped and the current page reloads.
func (c *Controller) OnImportCompleted(summary domain.ImportSummary) tea.Cmd {
	c.logger.Info("import completed, refreshing gallery", "jobID", summary.JobID, "page", c.currentPage)
	c.service.InvalidateCatalog()
	return c.LoadPage(c.currentPage)
}

// Filter narrows the visible items to names fuzzy-matching query
func (c *Controller) Filter(query string) {
	c.filter = query
	c.applyFilter()
}

// Select loads the full record of one image for the inspector
func (c *Controller) Select(id string) tea.Cmd {
	c.selectedID = id
	c.selected = nil
	c.selectErr = nil

	svc := c.service
	return func() tea.Msg {
		img, err := svc.FetchImage(context.Background(), id)
		return imageLoadedMsg{id: id, img: img, err: err}
	}
}

// ClearSelection closes the inspector
func (c *Controller) ClearSelection() {
	c.selectedID = ""
	c.selected = nil
	c.selectErr = nil
}

// Delete removes one image and reloads the current page once it is gone
func (c *Controller) Delete(id string) tea.Cmd {
	c.actionErr = nil
	c.notice = ""

	svc := c.service
	return func() tea.Msg {
		err := svc.DeleteImage(context.Background(), id)
		return imageDeletedMsg{id: id, err: err}
	}
}

// Update handles the controller's own messages and ignores everything else
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		return c.handlePage(msg)

	case statsLoadedMsg:
		if msg.seq != c.statsSeq {
			return nil
		}
		c.statsBusy = false
		if msg.err != nil {
			c.statsErr = msg.err
			return nil
		}
		c.stats = msg.stats
		c.statsLoaded = true
		c.statsErr = nil

	case imageLoadedMsg:
		if msg.id != c.selectedID {
			return nil
		}
		c.selected = msg.img
		c.selectErr = msg.err

	case imageDeletedMsg:
		if msg.err != nil {
			c.actionErr = msg.err
			return nil
		}
		c.notice = "Deleted image " + msg.id
		if c.selectedID == msg.id {
			c.ClearSelection()
		}
		return c.LoadPage(c.currentPage)
	}
	return nil
}

func (c *Controller) handlePage(msg pageLoadedMsg) tea.Cmd {
	if msg.seq != c.itemSeq || msg.page != c.currentPage {
		c.logger.Debug("dropping stale page result", "page", msg.page, "current", c.currentPage)
		return nil
	}
	c.itemsBusy = false

	if msg.err != nil {
		c.itemsErr = msg.err
		return nil
	}

	c.itemsErr = nil
	c.page = msg.result
	c.pageLoaded = true
	c.stale = false
	c.applyFilter()

	// Deletes can shrink the catalog below the page we are on.
	if c.currentPage > 1 && c.currentPage > msg.result.TotalPages {
		return c.LoadPage(max(msg.result.TotalPages, 1))
	}
	return nil
}

func (c *Controller) applyFilter() {
	c.visible = filterRecords(c.page.Items, c.filter)
}

func (c *Controller) fetchPage(seq uint64, page int) tea.Cmd {
	svc := c.service
	return func() tea.Msg {
		result, err := svc.FetchPage(context.Background(), page)
		return pageLoadedMsg{seq: seq, page: page, result: result, err: err}
	}
}

func (c *Controller) fetchStats(seq uint64) tea.Cmd {
	svc := c.service
	return func() tea.Msg {
		stats, err := svc.FetchStats(context.Background())
		return statsLoadedMsg{seq: seq, stats: stats, err: err}
	}
}
