package sovrn

import (
	"fmt"
	"net/url"
	"strings"
)

const affiliateBaseURL = "https://sovrn.co"

// LinkOptions carries the optional tracking parameters for a wrapped URL.
type LinkOptions struct {
	CUID        string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// AffiliateLink wraps a product URL with Sovrn tracking parameters: the
// destination, a bid floor and the original URL as fallback. When no API key
// is configured, or the destination is empty, the original URL is returned
// unchanged so ingestion keeps working without credentials.
func (c *Client) AffiliateLink(destinationURL string, opts LinkOptions) string {
	if c.apiKey == "" || strings.TrimSpace(destinationURL) == "" {
		return destinationURL
	}

	encoded := url.QueryEscape(destinationURL)
	link := fmt.Sprintf("%s?key=%s&u=%s&bf=%g&fbu=%s", affiliateBaseURL, c.apiKey, encoded, c.bidFloor, encoded)

	if opts.CUID != "" {
		link += "&cuid=" + url.QueryEscape(opts.CUID)
	}
	if opts.UTMSource != "" {
		link += "&utm_source=" + url.QueryEscape(opts.UTMSource)
	}
	if opts.UTMMedium != "" {
		link += "&utm_medium=" + url.QueryEscape(opts.UTMMedium)
	}
	if opts.UTMCampaign != "" {
		link += "&utm_campaign=" + url.QueryEscape(opts.UTMCampaign)
	}
	return link
}
