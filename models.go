package main

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults applied when neither the page nor the API provides a value
const (
	RelatorNaoAtribuido = "Não atribuído"
	SituacaoND          = "N/D"
)

// SectionKind identifies the recognized agenda sections. Headings outside the
// known set are carried verbatim as SectionOutra.
type SectionKind int

const (
	SectionPrevista SectionKind = iota
	SectionNaoAnalisada
	SectionAnalisada
	SectionEmAnalise
	SectionOutra
)

// Section is a classified agenda heading. Label holds the cleaned heading
// text only for SectionOutra.
type Section struct {
	Kind  SectionKind
	Label string
}

var (
	trailingDigits = regexp.MustCompile(`\s*\d+$`)
	ptTitleCaser   = cases.Title(language.BrazilianPortuguese)
)

// ClassifySection maps a raw section heading to its kind. The heading's
// trailing item count is stripped before matching. Rule order matters:
// "não analisadas" contains "analisadas", so the more specific rule comes
// first.
func ClassifySection(raw string) Section {
	cleaned := strings.TrimSpace(trailingDigits.ReplaceAllString(strings.TrimSpace(raw), ""))
	lowered := strings.ToLower(cleaned)

	switch {
	case strings.Contains(lowered, "previstas"):
		return Section{Kind: SectionPrevista}
	case strings.Contains(lowered, "não analisadas"):
		return Section{Kind: SectionNaoAnalisada}
	case strings.Contains(lowered, "analisadas"):
		return Section{Kind: SectionAnalisada}
	case strings.Contains(lowered, "em análise"):
		return Section{Kind: SectionEmAnalise}
	default:
		return Section{Kind: SectionOutra, Label: ptTitleCaser.String(lowered)}
	}
}

// Display returns the section label used for grouping and as the item status.
func (s Section) Display() string {
	switch s.Kind {
	case SectionPrevista:
		return "Proposta Prevista"
	case SectionNaoAnalisada:
		return "Proposta Não Analisada"
	case SectionAnalisada:
		return "Proposta Analisada"
	case SectionEmAnalise:
		return "Proposta em Análise"
	default:
		return s.Label
	}
}

// Destaque is a highlighted amendment under active floor consideration.
type Destaque struct {
	Numero     string `json:"numero"`
	Autoria    string `json:"autoria"`
	Descricao  string `json:"descricao"`
	Tipo       string `json:"tipo_destaque"`
	Situacao   string `json:"situacao"`
	ResumoNota string `json:"resumo_nota"`
}

// PautaItem is one scheduled bill on an event's agenda. Built fresh on every
// scrape; the three note fields are merged in afterwards from the store.
type PautaItem struct {
	Ordem          string     `json:"ordem"`
	IDPrincipal    string     `json:"id_principal"`
	Projeto        string     `json:"projeto"`
	Ementa         string     `json:"ementa"`
	Autor          string     `json:"autor"`
	Relator        string     `json:"relator"`
	Situacao       string     `json:"situacao"`
	Secao          string     `json:"secao"`
	Status         string     `json:"status"`
	URLInteiroTeor string     `json:"url_inteiro_teor,omitempty"`
	ResumoMateria  string     `json:"resumo_materia"`
	Orientacao     string     `json:"orientacao"`
	ResumoParecer  string     `json:"resumo_parecer"`
	Destaques      []Destaque `json:"destaques_emendas"`
	TemMaisAutores bool       `json:"tem_mais_autores"`
}

// ItemNote is a user-authored note attached to a bill or highlight.
// Writing an existing key fully replaces the row.
type ItemNote struct {
	EventoID      string
	Ordem         string
	ResumoMateria string
	Orientacao    string
	ResumoParecer string
}

// PropNoteKey is the note key for a bill.
func PropNoteKey(idPrincipal string) string {
	return "PROP_" + idPrincipal
}

// DestaqueNoteKey is the note key for one of a bill's highlights.
func DestaqueNoteKey(idPrincipal, numero string) string {
	return "DSTQ_" + idPrincipal + "_" + numero
}

// MergeNotas copies stored note fields onto freshly scraped items, matching
// bills by PROP_ key and highlights by DSTQ_ key. Items without a stored note
// keep their empty fields. Merging the same map twice is a no-op.
func MergeNotas(itens []PautaItem, notas map[string]ItemNote) {
	if len(notas) == 0 {
		return
	}

	for i := range itens {
		if nota, ok := notas[PropNoteKey(itens[i].IDPrincipal)]; ok {
			itens[i].ResumoMateria = nota.ResumoMateria
			itens[i].Orientacao = nota.Orientacao
			itens[i].ResumoParecer = nota.ResumoParecer
		}

		for j := range itens[i].Destaques {
			d := &itens[i].Destaques[j]
			if nota, ok := notas[DestaqueNoteKey(itens[i].IDPrincipal, d.Numero)]; ok {
				d.ResumoNota = nota.ResumoMateria
			}
		}
	}
}

// Evento is one scheduled plenary session.
type Evento struct {
	ID             string `json:"id"`
	Descricao      string `json:"descricao"`
	DataHoraInicio string `json:"dataHoraInicio"`
	Local          string `json:"local"`
	Situacao       string `json:"situacao"`
}

// PautaResponse is the agenda-view payload.
type PautaResponse struct {
	Evento      Evento      `json:"evento"`
	Itens       []PautaItem `json:"itens"`
	FromCache   bool        `json:"from_cache"`
	LastUpdated string      `json:"last_updated,omitempty"`
}

// SaveDestaqueNote carries one highlight's note inside a save request.
type SaveDestaqueNote struct {
	Numero string `json:"numero"`
	Resumo string `json:"resumo"`
}

// SaveItemRequest is the inbound payload of the save endpoint.
type SaveItemRequest struct {
	EventoID      string             `json:"evento_id"`
	IDPrincipal   string             `json:"id_principal" binding:"required"`
	Ordem         string             `json:"ordem"`
	ResumoMateria string             `json:"resumo_materia"`
	Orientacao    string             `json:"orientacao"`
	ResumoParecer string             `json:"resumo_parecer"`
	Destaques     []SaveDestaqueNote `json:"destaques"`
}
