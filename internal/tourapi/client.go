package tourapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"tour_guide_rag/internal/httpx"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	BaseURL = "http://apis.data.go.kr/B551011/KorService2"

	// DefaultTimeout bounds each Tour API call.
	DefaultTimeout = 10 * time.Second

	successCode        = "0000"
	defaultContentType = "12"
	maxImages          = 3
)

var (
	// ErrEnvelope marks a response whose header carries a failure result code.
	ErrEnvelope = errors.New("tourapi: error result code")
	// ErrNoResult means the search matched nothing.
	ErrNoResult = errors.New("tourapi: no result")
	// ErrMalformed means the body is not the expected JSON document.
	ErrMalformed = errors.New("tourapi: malformed response")
)

// Record is one item of a Tour API response, values rendered as strings.
type Record map[string]string

// Client talks to the VisitKorea KorService2 endpoints.
type Client struct {
	BaseURL    string
	serviceKey string
	http       *httpx.Client
	log        zerolog.Logger
}

func NewClient(serviceKey string, hc *httpx.Client, log zerolog.Logger) *Client {
	return &Client{
		BaseURL:    BaseURL,
		serviceKey: serviceKey,
		http:       hc,
		log:        log,
	}
}

// Configured reports whether a service key is set.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.serviceKey) != ""
}

// SearchKeyword returns up to five places matching keyword.
func (c *Client) SearchKeyword(ctx context.Context, keyword string) ([]Record, error) {
	body, err := c.request(ctx, "searchKeyword2", url.Values{
		"keyword":   {keyword},
		"numOfRows": {"5"},
	})
	if err != nil {
		return nil, err
	}
	items := records(body)
	if len(items) == 0 {
		return nil, ErrNoResult
	}
	return items, nil
}

// DetailCommon returns the common detail (overview, address, phone) of a place.
func (c *Client) DetailCommon(ctx context.Context, contentID string) (Record, error) {
	body, err := c.request(ctx, "detailCommon2", url.Values{
		"contentId":    {contentID},
		"defaultYN":    {"Y"},
		"firstImageYN": {"N"},
		"areacodeYN":   {"N"},
		"addrinfoYN":   {"Y"},
		"overviewYN":   {"Y"},
	})
	if err != nil {
		return nil, err
	}
	return first(records(body)), nil
}

// DetailIntro returns type-specific detail such as opening hours and closing days.
func (c *Client) DetailIntro(ctx context.Context, contentID, contentTypeID string) (Record, error) {
	if contentTypeID == "" {
		contentTypeID = defaultContentType
	}
	body, err := c.request(ctx, "detailIntro2", url.Values{
		"contentId":     {contentID},
		"contentTypeId": {contentTypeID},
	})
	if err != nil {
		return nil, err
	}
	return first(records(body)), nil
}

// DetailImages returns at most three image URLs, preferring the original size.
func (c *Client) DetailImages(ctx context.Context, contentID string) ([]string, error) {
	body, err := c.request(ctx, "detailImage2", url.Values{
		"contentId": {contentID},
		"numOfRows": {"3"},
		"imageYN":   {"Y"},
	})
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, r := range records(body) {
		u := r["originimgurl"]
		if u == "" {
			u = r["smallimageurl"]
		}
		if u != "" {
			urls = append(urls, u)
		}
		if len(urls) == maxImages {
			break
		}
	}
	return urls, nil
}

// FetchInfo searches keyword and enriches the first hit with detail calls.
// A failing detail call leaves the matching fields empty and marks the
// result Partial.
func (c *Client) FetchInfo(ctx context.Context, keyword string) (*Info, error) {
	keyword = strings.TrimSpace(keyword)
	if !c.Configured() || utf8.RuneCountInString(keyword) < 2 {
		return nil, ErrNoResult
	}

	items, err := c.SearchKeyword(ctx, keyword)
	if err != nil {
		return nil, err
	}

	item := items[0]
	title := item["title"]
	if title == "" {
		title = keyword
	}
	contentID := item["contentid"]
	if contentID == "" {
		return infoFromItem(item, title), nil
	}

	partial := false
	common, err := c.DetailCommon(ctx, contentID)
	if err != nil {
		partial = true
		c.log.Debug().Err(err).Str("content_id", contentID).Msg("detailCommon2 failed")
	}
	intro, err := c.DetailIntro(ctx, contentID, item["contenttypeid"])
	if err != nil {
		partial = true
		c.log.Debug().Err(err).Str("content_id", contentID).Msg("detailIntro2 failed")
	}
	images, err := c.DetailImages(ctx, contentID)
	if err != nil {
		partial = true
		c.log.Debug().Err(err).Str("content_id", contentID).Msg("detailImage2 failed")
	}

	info := mergeInfo(item, common, intro, title, images)
	info.Partial = partial
	return info, nil
}

func (c *Client) buildURL(path string, params url.Values) string {
	params.Set("MobileOS", "ETC")
	params.Set("MobileApp", "QuestOfSeoul")
	params.Set("_type", "json")

	// An already-encoded key contains '%' and is sent verbatim.
	key := c.serviceKey
	if !strings.Contains(key, "%") {
		key = url.QueryEscape(key)
	}
	return fmt.Sprintf("%s/%s?serviceKey=%s&%s", strings.TrimRight(c.BaseURL, "/"), path, key, params.Encode())
}

func (c *Client) request(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	raw, err := c.http.Get(ctx, c.buildURL(path, params))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%s: %w", path, ErrMalformed)
	}
	doc := gjson.ParseBytes(raw)
	if code := doc.Get("response.header.resultCode").String(); code != successCode {
		return gjson.Result{}, fmt.Errorf("%s: %w %q: %s", path, ErrEnvelope, code, doc.Get("response.header.resultMsg").String())
	}
	return doc, nil
}

// records reads response.body.items.item, which is an object for a single
// hit, an array for several, and missing or "" when empty.
func records(doc gjson.Result) []Record {
	item := doc.Get("response.body.items.item")
	switch {
	case item.IsArray():
		var out []Record
		for _, el := range item.Array() {
			if el.IsObject() {
				out = append(out, toRecord(el))
			}
		}
		return out
	case item.IsObject():
		return []Record{toRecord(item)}
	default:
		return nil
	}
}

func toRecord(obj gjson.Result) Record {
	r := Record{}
	obj.ForEach(func(key, value gjson.Result) bool {
		r[key.String()] = value.String()
		return true
	})
	return r
}

func first(rs []Record) Record {
	if len(rs) == 0 {
		return Record{}
	}
	return rs[0]
}
