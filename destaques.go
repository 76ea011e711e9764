package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// destaqueMarker must appear in a row's number cell for the row to count
	// as a highlight
	destaqueMarker = "DTQ"

	// Only highlights still under floor consideration are kept
	situacaoEmTramitacao = "em tramitação"
)

var spaceRuns = regexp.MustCompile(`\s+`)

// collapseSpace normalizes cell text scraped from untrusted markup: runs of
// whitespace become single spaces and surrounding space is trimmed.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}

// DestaquesFetcher scrapes the plenary highlights page for one proposition.
type DestaquesFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewDestaquesFetcher wires an HTTP client; defaults cover production use.
func NewDestaquesFetcher(client *http.Client, baseURL string) *DestaquesFetcher {
	if client == nil {
		client = &http.Client{Timeout: PageFetchTimeout}
	}
	if baseURL == "" {
		baseURL = CamaraSiteBaseURL
	}
	return &DestaquesFetcher{httpClient: client, baseURL: baseURL}
}

// Fetch returns the highlights under consideration for a proposition.
// Rows need at least 5 columns, the marker token in the first and the
// "em tramitação" status in the fifth. Any fetch or parse error degrades to
// an empty slice; the page is session-agnostic and not always present.
func (f *DestaquesFetcher) Fetch(ctx context.Context, idProposicao string) []Destaque {
	destaques := []Destaque{}

	endpoint := fmt.Sprintf("%s/pplen/destaques.html?codOrgao=%s&codProposicao=%s",
		f.baseURL, PlenarioOrgaoID, idProposicao)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("Failed to build highlights request for %s: %v", idProposicao, err)
		return destaques
	}
	req.Header.Set("User-Agent", "pauta-plenario/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Printf("Failed to fetch highlights for %s: %v", idProposicao, err)
		return destaques
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Highlights page for %s returned status %d", idProposicao, resp.StatusCode)
		return destaques
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Failed to parse highlights page for %s: %v", idProposicao, err)
		return destaques
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 5 {
			return
		}

		numero := collapseSpace(cells.Eq(0).Text())
		if !strings.Contains(strings.ToUpper(numero), destaqueMarker) {
			return
		}

		situacao := collapseSpace(cells.Eq(4).Text())
		if strings.ToLower(situacao) != situacaoEmTramitacao {
			return
		}

		destaques = append(destaques, Destaque{
			Numero:    numero,
			Autoria:   collapseSpace(cells.Eq(1).Text()),
			Descricao: collapseSpace(cells.Eq(2).Text()),
			Tipo:      collapseSpace(cells.Eq(3).Text()),
			Situacao:  situacao,
		})
	})

	return destaques
}
