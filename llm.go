package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
)

// analysisSystemPrompt frames the partisan perspective applied to every
// analysis.
const analysisSystemPrompt = "Você é um analista político da bancada do Partido Liberal (PL) na Câmara dos Deputados. " +
	"Suas análises devem refletir a perspectiva liberal-conservadora, " +
	"valorizando liberdade econômica, responsabilidade fiscal, defesa da família e segurança pública. " +
	"Evite repetições e bullets; use parágrafos curtos e subtítulos em negrito."

// analysisUserPrompt lists the topics the model must cover for a bill.
func analysisUserPrompt(codigo string) string {
	return fmt.Sprintf("Analise o Projeto %s com base no documento em anexo, "+
		"seguindo os tópicos abaixo:\n\n"+
		"1. **Resumo técnico** — explique o conteúdo e objetivo do projeto.\n"+
		"2. **Pontos positivos** — sob a ótica do Partido Liberal.\n"+
		"3. **Pontos negativos** — sob a ótica do Partido Liberal, considerando oposição ao governo.\n"+
		"4. **Riscos políticos e de imagem** — repercussões prováveis no debate público e redes sociais.\n"+
		"5. **Orientação sugerida** — indique o voto (favorável, contrário ou com ressalvas) e justifique.",
		codigo)
}

// llmFilePart is an inline document attachment in a message part.
type llmFilePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

// llmContentPart is one element of a multi-part user message.
type llmContentPart struct {
	Type string       `json:"type"`
	Text string       `json:"text,omitempty"`
	File *llmFilePart `json:"file,omitempty"`
}

// llmMessage holds either plain string content (system role) or content parts.
type llmMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type llmRequest struct {
	Model     string       `json:"model"`
	Messages  []llmMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type llmAPIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMClient queries a chat-completions endpoint for bill analysis.
type LLMClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

// NewLLMClient wires the analysis endpoint; defaults come from configuration.
func NewLLMClient(client *http.Client, apiURL, apiKey, model string) *LLMClient {
	if client == nil {
		client = &http.Client{Timeout: AnalysisTimeout}
	}
	if apiURL == "" {
		apiURL = LLMAPIURL
	}
	if model == "" {
		model = LLMModel
	}
	return &LLMClient{httpClient: client, apiURL: apiURL, apiKey: apiKey, model: model}
}

// AnalyzePDF sends a bill's full-text PDF to the model inline and returns the
// raw analysis text.
func (l *LLMClient) AnalyzePDF(ctx context.Context, codigo string, pdf []byte) (string, error) {
	fileData := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)

	payload := llmRequest{
		Model: l.model,
		Messages: []llmMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: []llmContentPart{
				{Type: "text", Text: analysisUserPrompt(codigo)},
				{Type: "file", File: &llmFilePart{
					Filename: "inteiro-teor.pdf",
					FileData: fileData,
				}},
			}},
		},
		MaxTokens: 10000,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.apiURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResponse llmAPIResponse
	if err := json.Unmarshal(bodyBytes, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty analysis in response")
	}

	return content, nil
}

var (
	boldExpr        = regexp.MustCompile(`\*\*(.*?)\*\*`)
	numberedTopExpr = regexp.MustCompile(`(?m)^(\d+\.\s+)(.+)$`)
)

// FormatAnalysisHTML converts the model's lightweight markdown into the HTML
// fragment consumed by the note editor.
func FormatAnalysisHTML(raw string) string {
	out := strings.TrimSpace(raw)
	out = boldExpr.ReplaceAllString(out, "<b>$1</b>")
	out = numberedTopExpr.ReplaceAllString(out, "<p><b>$1</b>$2</p>")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return out
}

// BillAnalyzer wires code resolution, full-text download and the model call.
// The whole feature is glue around the open-data API and the LLM endpoint.
type BillAnalyzer struct {
	api       *CamaraClient
	llm       *LLMClient
	pdfClient *http.Client
	siteBase  string
}

// NewBillAnalyzer builds the analysis pipeline.
func NewBillAnalyzer(api *CamaraClient, llm *LLMClient, pdfClient *http.Client, siteBase string) *BillAnalyzer {
	if pdfClient == nil {
		pdfClient = &http.Client{Timeout: PDFDownloadTimeout}
	}
	if siteBase == "" {
		siteBase = CamaraSiteBaseURL
	}
	return &BillAnalyzer{api: api, llm: llm, pdfClient: pdfClient, siteBase: siteBase}
}

// Analyze resolves a bill code, downloads its full text and returns the
// model's analysis formatted as HTML.
func (b *BillAnalyzer) Analyze(ctx context.Context, codigo string) (string, error) {
	tipo, numero, ano, ok := ParseCodigo(codigo)
	if !ok {
		return "", fmt.Errorf("formato inválido, use algo como 'PL 1234/2024'")
	}
	normalized := fmt.Sprintf("%s %s/%s", tipo, numero, ano)

	idProposicao := b.api.LookupProposicaoID(ctx, normalized)
	if idProposicao == "" {
		return "", fmt.Errorf("%s não encontrado na API", normalized)
	}
	log.Printf("Analyzing %s (id %s)", normalized, idProposicao)

	det := b.api.Detalhes(ctx, idProposicao)
	link := det.URLInteiroTeor
	if link == "" {
		// Some propositions never publish urlInteiroTeor; the tramitation
		// page serves the document instead
		link = fmt.Sprintf("%s/proposicoesWeb/fichadetramitacao?idProposicao=%s", b.siteBase, idProposicao)
	}

	pdf, err := b.downloadPDF(ctx, link)
	if err != nil {
		return "", fmt.Errorf("falha ao baixar inteiro teor: %w", err)
	}
	log.Printf("Downloaded full text for %s (%d bytes)", normalized, len(pdf))

	raw, err := b.llm.AnalyzePDF(ctx, normalized, pdf)
	if err != nil {
		return "", fmt.Errorf("falha ao gerar análise: %w", err)
	}

	return FormatAnalysisHTML(raw), nil
}

func (b *BillAnalyzer) downloadPDF(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := b.pdfClient.Do(req)
	if err != nil {
		return nil, fetchErr(ErrSourceUnavailable, "full text", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(ErrSourceUnavailable, "full text", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
