package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sizeSuffixRe matches the thumbnail size token some image hosts embed
// into file names, e.g. "cover._SY75_.jpg".
var sizeSuffixRe = regexp.MustCompile(`\._S[XY]\d+_`)

var (
	mediaRe     = attrPattern(`media:thumbnail|media:content`)
	enclosureRe = attrPattern(`enclosure`)
)

// coverStrategy resolves a cover URL from an item block, "" when absent
type coverStrategy func(block string) string

// coverChain is applied in order, the first non-empty result wins
var coverChain = []coverStrategy{
	unsized(tagText("book_image_url")),
	unsized(tagText("image_url")),
	attrValue(mediaRe),
	attrValue(enclosureRe),
	unsized(descriptionImage),
}

func firstCover(block string) *string {
	for _, strategy := range coverChain {
		if cover := strategy(block); cover != "" {
			return &cover
		}
	}
	return nil
}

// StripSizeSuffix upgrades a scaled thumbnail URL to the original image
func StripSizeSuffix(url string) string {
	return sizeSuffixRe.ReplaceAllString(url, "")
}

func unsized(strategy coverStrategy) coverStrategy {
	return func(block string) string {
		return StripSizeSuffix(strategy(block))
	}
}

// descriptionImage returns the src of the first <img> inside the item
// description body
func descriptionImage(block string) string {
	body := tagBody(block, "description")
	if !strings.Contains(body, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
