package handler

import (
	"fmt"
	"strings"

	"fruitbid/internal/web"
)

// Page is one of the selectable screens of the web UI
type Page int

const (
	PageHome Page = iota
	PageMarketplace
	PageMyBids
	PageAdminAddLot
)

var allPages = []Page{PageHome, PageMarketplace, PageMyBids, PageAdminAddLot}

type pageInfo struct {
	slug     string
	label    string
	path     string
	template string
}

var pages = map[Page]pageInfo{
	PageHome:        {slug: "home", label: "Home", path: "/", template: web.HomeTemplate},
	PageMarketplace: {slug: "marketplace", label: "Marketplace", path: "/marketplace", template: web.MarketplaceTemplate},
	PageMyBids:      {slug: "my-bids", label: "My Bids", path: "/my-bids", template: web.MyBidsTemplate},
	PageAdminAddLot: {slug: "admin-add-lot", label: "Admin Add Lot", path: "/admin/lots/new", template: web.AdminAddLotTemplate},
}

func (p Page) String() string { return pages[p].slug }

// Label is the human readable page title
func (p Page) Label() string { return pages[p].label }

// Path is the URL the page is served on
func (p Page) Path() string { return pages[p].path }

func (p Page) template() string { return pages[p].template }

// ParsePage accepts a page slug or label, case-insensitively
func ParsePage(s string) (Page, error) {
	s = strings.TrimSpace(s)
	for _, p := range allPages {
		if strings.EqualFold(s, p.String()) || strings.EqualFold(s, p.Label()) {
			return p, nil
		}
	}
	return PageHome, fmt.Errorf("unknown page %q", s)
}

// navFor builds the navigation bar with the current page highlighted
func navFor(current Page) []web.NavItem {
	items := make([]web.NavItem, 0, len(allPages))
	for _, p := range allPages {
		items = append(items, web.NavItem{Label: p.Label(), Path: p.Path(), Active: p == current})
	}
	return items
}
