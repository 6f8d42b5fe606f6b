package zurich

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Paris indexes used by the tools.
const (
	ParisIndexBusiness = "geschaeft"
	ParisIndexContact  = "kontakt"
	ParisIndexMandate  = "behoerdenmandat"
)

// ParisResponse is a searchdetails answer. Elements are matched by local
// name, the cdws namespaces differ per index.
type ParisResponse struct {
	NumHits int        `xml:"numHits,attr"`
	Hits    []ParisHit `xml:"Hit"`
}

// ParisHit carries the record of whichever index was searched.
type ParisHit struct {
	Business *Business `xml:"Geschaeft"`
	Contact  *Contact  `xml:"Kontakt"`
	Mandate  *Mandate  `xml:"Behoerdenmandat"`
	// Older exports spell the mandate element without the "e".
	MandateAlt *Mandate `xml:"Behordenmandat"`
}

// MandateRecord returns the mandate record regardless of its spelling.
func (h ParisHit) MandateRecord() *Mandate {
	if h.Mandate != nil {
		return h.Mandate
	}
	return h.MandateAlt
}

// Business is a Gemeinderat business item (Geschäft).
type Business struct {
	GRNr       string `xml:"GRNr"`
	Title      string `xml:"Titel"`
	Kind       string `xml:"Geschaeftsart"`
	Status     string `xml:"Geschaeftsstatus"`
	Department struct {
		Name  string `xml:"Departement>Name"`
		Short string `xml:"Departement>n"`
	} `xml:"FederfuehrendesDepartement"`
	Begin     string `xml:"Beginn>Text"`
	FirstSign *struct {
		Name  string `xml:"Name"`
		Short string `xml:"n"`
		Party string `xml:"Partei"`
	} `xml:"Erstunterzeichner>KontaktGremium"`
}

// DepartmentName returns the lead department, if any.
func (b *Business) DepartmentName() string {
	return firstText(b.Department.Name, b.Department.Short)
}

// Submitter returns "Name (Party)" of the first signatory, or "".
func (b *Business) Submitter() string {
	if b.FirstSign == nil {
		return ""
	}
	name := firstText(b.FirstSign.Name, b.FirstSign.Short)
	party := strings.TrimSpace(b.FirstSign.Party)
	if party == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, party)
}

// Link returns the public web page of the business item.
func (b *Business) Link() string {
	return ParliamentBusinessURL + strings.ReplaceAll(strings.TrimSpace(b.GRNr), "/", "-")
}

// Contact is a person in the contact index.
type Contact struct {
	NameFirstName string           `xml:"NameVorname"`
	Party         string           `xml:"Partei"`
	Constituency  string           `xml:"Wahlkreis"`
	Mandates      []ContactMandate `xml:"Behoerdenmandat>Behoerdenmandat"`
}

// ContactMandate is a committee seat listed on a contact.
type ContactMandate struct {
	Body     string `xml:"GremiumName"`
	Function string `xml:"Funktion"`
}

// Mandate is an entry of the mandate index.
type Mandate struct {
	Name      string `xml:"Name"`
	Short     string `xml:"n"`
	FirstName string `xml:"Vorname"`
	Body      string `xml:"Gremium"`
	Function  string `xml:"Funktion"`
	Party     string `xml:"Partei"`
	Duration  string `xml:"Dauer>Text"`
}

// LastName returns the family name of the mandate holder.
func (m *Mandate) LastName() string {
	return firstText(m.Name, m.Short)
}

// Since returns the start of the mandate from a "start - end" duration text.
func (m *Mandate) Since() string {
	start, _, found := strings.Cut(m.Duration, " -")
	if !found {
		return ""
	}
	return strings.TrimSpace(start)
}

func firstText(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ParisSearch queries /{index}/searchdetails with a CQL expression. start is 1-based.
func (c *Client) ParisSearch(ctx context.Context, index, cql string, start, max int) (*ParisResponse, error) {
	if start < 1 {
		start = 1
	}
	body, err := c.fetch(ctx, request{
		service: ServiceParis,
		url:     c.endpoints.Paris + "/" + url.PathEscape(index) + "/searchdetails",
		params: url.Values{
			"q": {cql},
			"l": {"de-CH"},
			"s": {strconv.Itoa(start)},
			"m": {strconv.Itoa(max)},
		},
		accept: "application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}
	return DecodeParis(body)
}

// DecodeParis parses a searchdetails XML document.
func DecodeParis(body []byte) (*ParisResponse, error) {
	var out ParisResponse
	dec := xml.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", ServiceParis, err)
	}
	return &out, nil
}
