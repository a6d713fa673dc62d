package internal

import (
	"chatwav/repositories"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

var inspectTemplate = template.Must(template.New("inspect").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>chatwav inspector</title>
<style>
body { font-family: monospace; margin: 2em; }
td, th { padding: 2px 12px; text-align: left; border-bottom: 1px solid #ddd; }
.stats span { margin-right: 2em; }
</style>
</head>
<body>
<form><input name="prefix" value="{{.Prefix}}"><button>scan</button></form>
<p class="stats">{{range .Stats}}<span>{{.Name}}: <b>{{.Value}}</b></span>{{end}}</p>
<table>
<tr><th>Key</th><th>Type</th><th>At</th><th>Entity</th><th>Detail</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.Type}}</td><td>{{if not .At.IsZero}}{{.At.Format "2006-01-02 15:04:05"}}{{else}}-{{end}}</td><td>{{.Entity}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body>
</html>`))

// StatsProvider returns live counters shown above the table.
type StatsProvider func() map[string]any

type stat struct {
	Name  string
	Value any
}

type pageData struct {
	Prefix string
	Items  []repositories.RecordView
	Stats  []stat
}

// Inspector renders the content of the store as an HTML table, filtered by
// the "prefix" query parameter. Only mounted when running at debug level.
type Inspector struct {
	log   *slog.Logger
	db    *badger.DB
	stats StatsProvider
}

func NewInspector(log *slog.Logger, db *badger.DB, stats StatsProvider) *Inspector {
	return &Inspector{log: log, db: db, stats: stats}
}

func (i *Inspector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := pageData{Prefix: r.URL.Query().Get("prefix")}
	if i.stats != nil {
		for name, value := range i.stats() {
			data.Stats = append(data.Stats, stat{Name: name, Value: value})
		}
		sort.Slice(data.Stats, func(a, b int) bool { return data.Stats[a].Name < data.Stats[b].Name })
	}

	err := repositories.Scan(i.db, data.Prefix, func(view repositories.RecordView) {
		data.Items = append(data.Items, view)
	})
	if err != nil {
		i.log.Error("Inspector scan failed", "prefix", data.Prefix, "error", err)
		http.Error(w, "scan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := inspectTemplate.Execute(w, data); err != nil {
		i.log.Debug("Inspector render failed", "error", err)
	}
}
