package main

import (
	"html/template"
	"io"
)

// ExportData is everything a renderer needs to produce a standalone report.
type ExportData struct {
	Evento      Evento
	Itens       []PautaItem
	FromCache   bool
	LastUpdated string
}

// PautaRenderer turns a session agenda into a downloadable document.
type PautaRenderer interface {
	ContentType() string
	Render(w io.Writer, data ExportData) error
}

const exportTemplateText = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Pauta — {{.Evento.Descricao}}</title>
<style>
body { font-family: Arial, Helvetica, sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 2em; border-bottom: 1px solid #ccc; padding-bottom: 4px; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
.meta { color: #666; font-size: 0.9em; }
.nota { background: #fffbe6; padding: 8px; margin-top: 6px; }
.destaque { margin-left: 1em; font-size: 0.95em; }
</style>
</head>
<body>
<h1>Pauta do Plenário — {{.Evento.DataHoraInicio}}</h1>
<p class="meta">{{.Evento.Descricao}} — {{.Evento.Local}}{{if .LastUpdated}} — atualizado em {{.LastUpdated}}{{end}}</p>

<table>
<tr><th>#</th><th>Projeto</th><th>Seção</th><th>Ementa</th></tr>
{{range .Itens}}<tr><td>{{.Ordem}}</td><td>{{.Projeto}}</td><td>{{.Secao}}</td><td>{{.Ementa}}</td></tr>
{{end}}</table>

{{range .Itens}}
<h2>{{.Ordem}}. {{.Projeto}}</h2>
<p>{{.Ementa}}</p>
<p class="meta">Autor: {{.Autor}} — Relator: {{.Relator}} — Situação: {{.Situacao}}</p>
{{if .ResumoMateria}}<div class="nota"><b>Resumo da matéria:</b><br>{{.ResumoMateria}}</div>{{end}}
{{if .Orientacao}}<div class="nota"><b>Orientação:</b><br>{{.Orientacao}}</div>{{end}}
{{if .ResumoParecer}}<div class="nota"><b>Resumo do parecer:</b><br>{{.ResumoParecer}}</div>{{end}}
{{if .Destaques}}<p><b>Destaques e emendas:</b></p>
{{range .Destaques}}<div class="destaque">• {{.Numero}} ({{.Tipo}}) — {{.Autoria}}: {{.Descricao}}{{if .ResumoNota}}<div class="nota">{{.ResumoNota}}</div>{{end}}</div>
{{end}}{{end}}
{{end}}
</body>
</html>
`

// HTMLRenderer renders the agenda as a self-contained HTML page.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("pauta").Parse(exportTemplateText))}
}

func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *HTMLRenderer) Render(w io.Writer, data ExportData) error {
	return r.tmpl.Execute(w, data)
}
