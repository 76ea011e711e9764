package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// CamaraClient talks to the Chamber's open-data API. Base URL and HTTP client
// are injected so tests can point at a local server.
type CamaraClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCamaraClient wires an HTTP client; defaults cover production use.
func NewCamaraClient(client *http.Client, baseURL string) *CamaraClient {
	if client == nil {
		client = &http.Client{Timeout: APIRequestTimeout}
	}
	if baseURL == "" {
		baseURL = CamaraAPIBaseURL
	}
	return &CamaraClient{httpClient: client, baseURL: baseURL}
}

// Accepts "PL 1234/2024", "PL1234/2024", "PEC 9/2023", "PDL. 12/2023"
var codigoExpr = regexp.MustCompile(`^([A-Za-z]{2,5})\s*\.?\s*(\d+)\s*/\s*(\d{4})`)

// ParseCodigo splits a bill code into type, number and year. Tolerates a
// missing space and a stray dot after the type letters.
func ParseCodigo(codigo string) (tipo, numero, ano string, ok bool) {
	m := codigoExpr.FindStringSubmatch(strings.TrimSpace(codigo))
	if m == nil {
		return "", "", "", false
	}
	return strings.ToUpper(m[1]), m[2], m[3], true
}

// getJSON fetches and decodes one API endpoint.
func (c *CamaraClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pauta-plenario/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fetchErr(ErrSourceUnavailable, "camara api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetchErr(ErrSourceUnavailable, "camara api", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fetchErr(ErrParseMismatch, "camara api", err)
	}

	return nil
}

// LookupProposicaoID resolves a bill code to the API's numeric identifier.
// Returns "" when the code cannot be parsed, the request fails, or nothing
// matches. Failures are logged, never raised.
func (c *CamaraClient) LookupProposicaoID(ctx context.Context, codigo string) string {
	tipo, numero, ano, ok := ParseCodigo(codigo)
	if !ok {
		log.Printf("Invalid bill code format: %q", codigo)
		return ""
	}

	endpoint := fmt.Sprintf("%s/proposicoes?siglaTipo=%s&numero=%s&ano=%s",
		c.baseURL, url.QueryEscape(tipo), numero, ano)

	var payload struct {
		Dados []struct {
			ID int64 `json:"id"`
		} `json:"dados"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		log.Printf("Lookup failed for %q: %v", codigo, err)
		return ""
	}

	if len(payload.Dados) == 0 {
		log.Printf("No proposition found for %q", codigo)
		return ""
	}

	return strconv.FormatInt(payload.Dados[0].ID, 10)
}

// ProposicaoDetalhes is the authoritative metadata for one proposition.
// A failed fetch leaves every field empty.
type ProposicaoDetalhes struct {
	Situacao       string
	Ementa         string
	URLInteiroTeor string
	Autores        string
	TemMaisAutores bool
}

// Detalhes fetches a proposition's record and its authors sub-resource (two
// calls). Enrichment is best-effort: each call that fails is logged and its
// fields stay empty.
func (c *CamaraClient) Detalhes(ctx context.Context, idProposicao string) ProposicaoDetalhes {
	var det ProposicaoDetalhes

	var record struct {
		Dados struct {
			Ementa           string `json:"ementa"`
			URLInteiroTeor   string `json:"urlInteiroTeor"`
			StatusProposicao struct {
				DescricaoSituacao string `json:"descricaoSituacao"`
			} `json:"statusProposicao"`
		} `json:"dados"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/proposicoes/"+idProposicao, &record); err != nil {
		log.Printf("Failed to fetch details for proposition %s: %v", idProposicao, err)
	} else {
		det.Situacao = record.Dados.StatusProposicao.DescricaoSituacao
		det.Ementa = record.Dados.Ementa
		det.URLInteiroTeor = record.Dados.URLInteiroTeor
	}

	var autores struct {
		Dados []struct {
			Nome string `json:"nome"`
		} `json:"dados"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/proposicoes/"+idProposicao+"/autores", &autores); err != nil {
		log.Printf("Failed to fetch authors for proposition %s: %v", idProposicao, err)
		return det
	}

	names := make([]string, 0, len(autores.Dados))
	for _, a := range autores.Dados {
		if a.Nome != "" {
			names = append(names, a.Nome)
		}
	}

	// Display at most 3 authors, flagging when more exist
	if len(names) > 3 {
		det.Autores = strings.Join(names[:3], ", ") + " e outros"
		det.TemMaisAutores = true
	} else {
		det.Autores = strings.Join(names, ", ")
	}

	return det
}

// eventoPayload mirrors the API's event shape. localCamara arrives either as
// an object or as a plain string depending on the event.
type eventoPayload struct {
	ID             int64           `json:"id"`
	Descricao      string          `json:"descricao"`
	DescricaoTipo  string          `json:"descricaoTipo"`
	DataHoraInicio string          `json:"dataHoraInicio"`
	Situacao       string          `json:"situacao"`
	LocalCamara    json.RawMessage `json:"localCamara"`
}

func (p eventoPayload) localNome() string {
	if len(p.LocalCamara) == 0 {
		return SituacaoND
	}

	var obj struct {
		Nome string `json:"nome"`
	}
	if err := json.Unmarshal(p.LocalCamara, &obj); err == nil && obj.Nome != "" {
		return obj.Nome
	}

	var plain string
	if err := json.Unmarshal(p.LocalCamara, &plain); err == nil && plain != "" {
		return plain
	}

	return SituacaoND
}

func (p eventoPayload) toEvento() Evento {
	ev := Evento{
		ID:             strconv.FormatInt(p.ID, 10),
		Descricao:      p.Descricao,
		DataHoraInicio: p.DataHoraInicio,
		Local:          p.localNome(),
		Situacao:       p.Situacao,
	}
	if ev.Descricao == "" {
		ev.Descricao = "Sem descrição"
	}
	if ev.DataHoraInicio == "" {
		ev.DataHoraInicio = SituacaoND
	}
	if ev.Situacao == "" {
		ev.Situacao = SituacaoND
	}
	return ev
}

// EventosPorData lists the deliberative sessions scheduled on a date
// (YYYY-MM-DD), filtered to the plenary organ. Returns an empty slice on any
// failure.
func (c *CamaraClient) EventosPorData(ctx context.Context, data string) []Evento {
	endpoint := fmt.Sprintf("%s/eventos?idOrgao=%s&dataInicio=%s&dataFim=%s",
		c.baseURL, PlenarioOrgaoID, url.QueryEscape(data), url.QueryEscape(data))

	var payload struct {
		Dados []eventoPayload `json:"dados"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		log.Printf("Failed to list events for %s: %v", data, err)
		return []Evento{}
	}

	eventos := make([]Evento, 0, len(payload.Dados))
	for _, e := range payload.Dados {
		if e.DescricaoTipo != "Sessão Deliberativa" {
			continue
		}
		eventos = append(eventos, e.toEvento())
	}

	log.Printf("Found %d deliberative sessions on %s", len(eventos), data)
	return eventos
}

// Evento fetches one event's metadata. A failed fetch yields a placeholder
// with N/D fields so rendering never blocks on the API.
func (c *CamaraClient) Evento(ctx context.Context, eventoID string) Evento {
	var payload struct {
		Dados eventoPayload `json:"dados"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/eventos/"+eventoID, &payload); err != nil {
		log.Printf("Failed to fetch event %s: %v", eventoID, err)
		return Evento{
			ID:             eventoID,
			Descricao:      "Sessão Deliberativa",
			DataHoraInicio: SituacaoND,
			Local:          SituacaoND,
			Situacao:       SituacaoND,
		}
	}

	ev := payload.Dados.toEvento()
	if ev.ID == "0" {
		ev.ID = eventoID
	}
	return ev
}
