package zurich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Localized is a schema.org text that is either a plain string or an object
// keyed by language code.
type Localized map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Localized) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = Localized{"": plain}
		return nil
	}
	var byLang map[string]any
	if err := json.Unmarshal(data, &byLang); err != nil {
		// Arrays and numbers carry no usable text.
		*l = nil
		return nil
	}
	out := make(Localized, len(byLang))
	for lang, v := range byLang {
		out[lang] = cast.ToString(v)
	}
	*l = out
	return nil
}

// In returns the text in lang, falling back to the plain string form.
func (l Localized) In(lang string) string {
	if v, ok := l[lang]; ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(l[""])
}

// TourismItem is a schema.org record of the Zürich Tourismus API.
type TourismItem struct {
	Type        any             `json:"@type"`
	CustomType  any             `json:"@customType"`
	Name        Localized       `json:"name"`
	Description Localized       `json:"disambiguatingDescription"`
	Category    json.RawMessage `json:"category"`
	Address     json.RawMessage `json:"address"`
	URL         Localized       `json:"url"`
	Telephone   any             `json:"telephone"`
	Geo         json.RawMessage `json:"geo"`
}

// Kind returns @customType, or @type when no custom type is set.
func (t TourismItem) Kind() string {
	if s := strings.TrimSpace(cast.ToString(t.CustomType)); s != "" {
		return s
	}
	return strings.TrimSpace(cast.ToString(t.Type))
}

// Categories returns the category names in document order.
func (t TourismItem) Categories() []string {
	return objectKeys(t.Category)
}

// Phone returns the telephone number, if any.
func (t TourismItem) Phone() string {
	return strings.TrimSpace(cast.ToString(t.Telephone))
}

// AddressLine formats "street, postal city". It is empty without a street.
func (t TourismItem) AddressLine() string {
	var addr map[string]any
	if len(t.Address) == 0 || json.Unmarshal(t.Address, &addr) != nil {
		return ""
	}
	street := strings.TrimSpace(cast.ToString(addr["streetAddress"]))
	if street == "" {
		return ""
	}
	postal := strings.TrimSpace(cast.ToString(addr["postalCode"]))
	city := strings.TrimSpace(cast.ToString(addr["addressLocality"]))
	locality := strings.TrimSpace(postal + " " + city)
	if locality == "" {
		return street
	}
	return street + ", " + locality
}

// Coordinates returns latitude and longitude when both are set and non-zero.
func (t TourismItem) Coordinates() (lat, lon float64, ok bool) {
	var geo map[string]any
	if len(t.Geo) == 0 || json.Unmarshal(t.Geo, &geo) != nil {
		return 0, 0, false
	}
	lat, errLat := cast.ToFloat64E(geo["latitude"])
	lon, errLon := cast.ToFloat64E(geo["longitude"])
	if errLat != nil || errLon != nil || lat == 0 || lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}

// Matches reports whether needle occurs in the name, description or
// category names in lang. The comparison ignores case.
func (t TourismItem) Matches(lang, needle string) bool {
	needle = strings.ToLower(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name.In(lang)), needle) ||
		strings.Contains(strings.ToLower(t.Description.In(lang)), needle) ||
		strings.Contains(strings.ToLower(strings.Join(t.Categories(), " ")), needle)
}

// TourismCategoriesRaw returns the category list as upstream JSON.
func (c *Client) TourismCategoriesRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.fetch(ctx, request{service: ServiceTourism, url: c.endpoints.Tourism, memoize: true})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode %s response: invalid JSON", ServiceTourism)
	}
	return json.RawMessage(body), nil
}

// TourismData returns the records of a category. Records that do not decode
// are skipped.
func (c *Client) TourismData(ctx context.Context, categoryID int) ([]TourismItem, error) {
	var raw []json.RawMessage
	err := c.fetchJSON(ctx, request{
		service: ServiceTourism,
		url:     c.endpoints.Tourism,
		params:  url.Values{"id": {strconv.Itoa(categoryID)}},
		memoize: true,
	}, &raw)
	if err != nil {
		return nil, err
	}
	items := make([]TourismItem, 0, len(raw))
	for i, r := range raw {
		var item TourismItem
		if err := json.Unmarshal(r, &item); err != nil {
			c.logger.Debug("skipping tourism record", "category", categoryID, "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
