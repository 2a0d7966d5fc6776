package web

import (
	"embed"
	"html/template"
	"time"

	model "fruitbid/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Template names executed by the page handlers
const (
	HomeTemplate        = "home.gohtml"
	MarketplaceTemplate = "marketplace.gohtml"
	MyBidsTemplate      = "my_bids.gohtml"
	AdminAddLotTemplate = "admin_add_lot.gohtml"
)

// NavItem is one entry of the page navigation bar
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// PageData is the view model shared by every page template
type PageData struct {
	Title    string
	Nav      []NavItem
	UserName string
	Warning  string
	Notice   string
	Form     map[string]string
	Lots     []model.LotWithBids
	Bids     []model.UserBid
}

var rupeePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatRupees renders an amount with two decimals and digit grouping
func FormatRupees(amount float64) string {
	return rupeePrinter.Sprintf("₹%.2f", amount)
}

// FormatTimestamp renders a bid time in the stored layout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(model.TimestampLayout)
}

// Templates parses the embedded page templates once at startup
func Templates() (*template.Template, error) {
	return template.New("fruitbid").Funcs(template.FuncMap{
		"rupees":    FormatRupees,
		"timestamp": FormatTimestamp,
	}).ParseFS(templateFS, "templates/*.gohtml")
}
