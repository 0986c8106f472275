package web

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/jaminalder/codex-arcade/internal/app"
	"github.com/jaminalder/codex-arcade/internal/domain"
)

type templates struct {
	index          *template.Template
	mergePage      *template.Template
	mergeBoard     *template.Template
	placementPage  *template.Template
	placementBoard *template.Template
	pairsPage      *template.Template
	pairsBoard     *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"add": func(a, b int) int { return a + b },
		"mod": func(a, b int) int { return a % b },
		"cellText": func(v int) string {
			if v == 0 {
				return ""
			}
			return strconv.Itoa(v)
		},
		"digit": func(v uint8) string {
			if v == 0 {
				return ""
			}
			return strconv.Itoa(int(v))
		},
		"pairsFace": func(g *domain.PairsGame, i int) string {
			if g.States[i] == domain.CellClosed {
				return "?"
			}
			return strconv.Itoa(g.Symbols[i] + 1)
		},
		"pairsMatched": func(g *domain.PairsGame, i int) bool {
			return g.States[i] == domain.CellMatched
		},
	}
}

const baseTemplate = `<!doctype html><html><head>
<meta charset="utf-8"/>
<title>codex arcade</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`

const indexTemplate = `<h1>Arcade</h1>
<ul>
<li><form action="/merge" method="post"><button>New merge game</button></form></li>
<li><form action="/placement" method="post">
<select name="difficulty">
<option value="easy">easy</option>
<option value="medium" selected>medium</option>
<option value="hard">hard</option>
</select>
<button>New placement puzzle</button></form></li>
<li><form action="/pairs" method="post">
<input type="number" name="pairs" value="8" min="2" max="32"/>
<button>New pairs game</button></form></li>
</ul>
{{if .Sessions}}<h2>Saved games</h2><ul>
{{range .Sessions}}<li><a href="/{{.Kind}}/{{.ID}}">{{.Kind}}: {{.ID}}</a>
<form action="/sessions/{{.ID}}/delete" method="post" style="display:inline"><button>Delete</button></form></li>
{{end}}</ul>{{end}}`

const mergeBoardTemplate = `<div id="board">
<p>Score: {{.State.Score}} · Best: {{.State.Best}}</p>
{{if .State.Over}}<p><strong>No moves left.</strong></p>{{end}}
{{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
<table>
{{range $r := iter 4}}<tr>
{{range $c := iter 4}}<td class="tile">{{cellText (index $.State.Grid $r $c)}}</td>{{end}}
</tr>{{end}}
</table>
<div>
{{range $d := .Directions}}
<button hx-post="/merge/{{$.State.ID}}/move" hx-vals='{"dir":"{{$d}}"}' hx-target="#board" hx-swap="outerHTML">{{$d}}</button>
{{end}}
</div>
<form hx-post="/merge/{{.State.ID}}/restart" hx-target="#board" hx-swap="outerHTML"><button>Restart</button></form>
</div>`

const mergePageTemplate = `<h1>Merge</h1>
<div hx-ext="sse" sse-connect="/merge/{{.ID}}/events">
  <div sse-swap="board">{{.BoardHTML}}</div>
</div>
<p><a href="/">Back</a></p>`

const placementBoardTemplate = `<div id="board">
<p>Mistakes: {{.State.Mistakes}} · Hints left: {{.State.HintsLeft}}</p>
{{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
{{if .Status}}<p class="status">{{.Status}}</p>{{end}}
<table>
{{range $r := iter 9}}<tr>
{{range $c := iter 9}}<td>
{{if index $.State.Puzzle.Locked $r $c}}<b>{{digit (index $.State.Working $r $c)}}</b>{{else}}<input name="v" value="{{digit (index $.State.Working $r $c)}}" size="1" maxlength="1" hx-post="/placement/{{$.State.ID}}/cell" hx-vals='{"r":"{{$r}}","c":"{{$c}}"}' hx-target="#board" hx-swap="outerHTML"/>{{end}}
</td>{{end}}
</tr>{{end}}
</table>
<button hx-post="/placement/{{.State.ID}}/hint" hx-target="#board" hx-swap="outerHTML">Hint</button>
<button hx-post="/placement/{{.State.ID}}/check" hx-target="#board" hx-swap="outerHTML">Check</button>
<button hx-post="/placement/{{.State.ID}}/solve" hx-target="#board" hx-swap="outerHTML">Solve</button>
</div>`

const placementPageTemplate = `<h1>Placement ({{.Difficulty}})</h1>
<div hx-ext="sse" sse-connect="/placement/{{.ID}}/events">
  <div sse-swap="board">{{.BoardHTML}}</div>
</div>
<form hx-post="/placement/{{.ID}}/elapsed" hx-trigger="every 15s" hx-swap="none">
<input type="hidden" id="elapsed" name="seconds" value="{{.ElapsedSec}}"/>
</form>
<script>
(function(){var base={{.ElapsedSec}},t0=Date.now();
setInterval(function(){document.getElementById("elapsed").value=base+Math.floor((Date.now()-t0)/1000)},1000)})();
</script>
<p><a href="/">Back</a></p>`

const pairsBoardTemplate = `<div id="board">
<p>Moves: {{.State.Game.Moves}} · Matches: {{.State.Game.Matches}}</p>
{{if .State.Game.Completed}}<p><strong>All pairs found!</strong></p>{{end}}
{{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
<table>
{{$n := len .State.Game.Symbols}}{{range $i := iter $n}}{{if eq (mod $i 4) 0}}<tr>{{end}}<td><button {{if pairsMatched $.State.Game $i}}disabled{{end}} hx-post="/pairs/{{$.State.ID}}/open" hx-vals='{"cell":"{{$i}}"}' hx-target="#board" hx-swap="outerHTML">{{pairsFace $.State.Game $i}}</button></td>{{if or (eq (mod $i 4) 3) (eq $i (len $.State.Game.Symbols | add -1))}}</tr>{{end}}{{end}}
</table>
{{if .State.Game.PendingMismatch}}
<button hx-post="/pairs/{{.State.ID}}/resolve" hx-target="#board" hx-swap="outerHTML">Continue</button>
{{end}}
</div>`

const pairsPageTemplate = `<h1>Pairs</h1>
<div hx-ext="sse" sse-connect="/pairs/{{.ID}}/events">
  <div sse-swap="board">{{.BoardHTML}}</div>
</div>
<p><a href="/">Back</a></p>`

func page(content string) *template.Template {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(baseTemplate))
	template.Must(base.New("content").Parse(content))
	return base
}

func fragment(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs()).Parse(text))
}

func loadTemplates() *templates {
	return &templates{
		index:          page(indexTemplate),
		mergePage:      page(mergePageTemplate),
		mergeBoard:     fragment("merge_board", mergeBoardTemplate),
		placementPage:  page(placementPageTemplate),
		placementBoard: fragment("placement_board", placementBoardTemplate),
		pairsPage:      page(pairsPageTemplate),
		pairsBoard:     fragment("pairs_board", pairsBoardTemplate),
	}
}

func renderTemplate(t *template.Template, data any) []byte {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.Bytes()
}

// Fragment view models.

type mergeView struct {
	State      app.MergeState
	Directions []string
	Error      string
}

type placementView struct {
	State  app.PlacementState
	Error  string
	Status string
}

type pairsView struct {
	State app.PairsState
	Error string
}

var directionNames = []string{"left", "up", "right", "down"}
