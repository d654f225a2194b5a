package pipeline

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"climbrank/internal"
)

const (
	StrategyStructuredData = "structured-data"
	StrategyTable          = "table"
	StrategyCards          = "cards"
	StrategyLinks          = "links"
)

type strategy struct {
	name string
	run  func(doc *goquery.Document) []item
}

// Extractor runs the layout strategies against one page at a time. It holds
// no state between pages.
type Extractor struct {
	opts       Options
	strategies []strategy
}

func NewExtractor(opts Options) *Extractor {
	e := &Extractor{opts: opts}
	e.strategies = []strategy{
		{name: StrategyStructuredData, run: e.structuredData},
		{name: StrategyTable, run: e.table},
		{name: StrategyCards, run: e.cards},
		{name: StrategyLinks, run: e.links},
	}
	return e
}

type PageExtraction struct {
	Page     int
	Strategy string
	Records  []internal.ClimbRecord
}

// Extract returns the records of the first strategy that yields any.
func (e *Extractor) Extract(doc *goquery.Document, page int) PageExtraction {
	for _, s := range e.strategies {
		records := assemble(s.run(doc), page, e.opts)
		if len(records) == 0 {
			continue
		}
		slog.Debug("page extracted", "page", page, "strategy", s.name, "records", len(records))
		return PageExtraction{Page: page, Strategy: s.name, Records: records}
	}
	slog.Debug("no strategy matched", "page", page)
	return PageExtraction{Page: page}
}

func (e *Extractor) ExtractNode(root *html.Node, page int) PageExtraction {
	return e.Extract(goquery.NewDocumentFromNode(root), page)
}

func (e *Extractor) ExtractHTML(content []byte, page int) (PageExtraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return PageExtraction{Page: page}, fmt.Errorf("parse page %d: %w", page, err)
	}
	return e.Extract(doc, page), nil
}

// ExtractPage extracts records from raw HTML with the default options.
func ExtractPage(content []byte, page int) ([]internal.ClimbRecord, error) {
	res, err := NewExtractor(DefaultOptions()).ExtractHTML(content, page)
	return res.Records, err
}
