package crm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func parseCompany(record map[string]any) (result *Company) {
	var ok bool
	var id string
	var jo map[string]any
	if jo, ok = record["id"].(map[string]any); ok {
		id, ok = toString(jo["record_id"])
	}
	if !ok {
		return
	}
	result = new(Company)
	result.Id = id
	var values map[string]any
	if values, ok = record["values"].(map[string]any); !ok {
		return
	}
	if ja, ok := values["name"].([]any); ok && len(ja) > 0 {
		if jo, ok = ja[0].(map[string]any); ok {
			result.Name, _ = toString(jo["value"])
		}
	}
	if ja, ok := values["domains"].([]any); ok && len(ja) > 0 {
		if jo, ok = ja[0].(map[string]any); ok {
			result.Domain, _ = toString(jo["domain"])
		}
	}
	return
}

// FetchCompanies retrieves the full company listing, sorted by name with
// locale-aware collation so the written listing is stable for inspection.
func FetchCompanies(ctx context.Context, client *Client) (companies []*Company, err error) {
	if err = client.QueryCompanies(ctx, func(record map[string]any) {
		if c := parseCompany(record); c != nil {
			companies = append(companies, c)
		}
	}); err != nil {
		return
	}
	var coll = collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(companies, func(i, j int) bool {
		return coll.CompareString(companies[i].Name, companies[j].Name) < 0
	})
	return
}

func writeCompanies(w io.Writer, companies []*Company) {
	_, _ = fmt.Fprintf(w, "Companies: %d\n", len(companies))
	for _, c := range companies {
		_, _ = fmt.Fprintf(w, "\t%s\t%s\t%s\n", c.Name, c.Domain, c.Id)
	}
}

// WriteCompanyListing fetches all company records and writes them as
// formatted text to a local file for manual inspection.
func WriteCompanyListing(ctx context.Context, client *Client, path string) (count int, err error) {
	var companies []*Company
	if companies, err = FetchCompanies(ctx, client); err != nil {
		return
	}
	var f *os.File
	if f, err = os.Create(path); err != nil {
		return
	}
	defer func() {
		if er1 := f.Close(); err == nil {
			err = er1
		}
	}()
	writeCompanies(f, companies)
	count = len(companies)
	return
}
