package handlers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/models"
)

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>Speed Server</title>
	<style>
		body { font-family: Arial; background: #1a1a2e; color: #eee; padding: 20px; }
		h1 { color: #0ff; }
		.box { background: #16213e; padding: 15px; border-radius: 10px; margin: 10px 0; }
		.pending { color: #ffa500; }
		.completed { color: #0f0; }
	</style>
</head>
<body>
	<h1>Speed Server</h1>
	<div class="box">
		<h3>Status</h3>
		<p>Pending Commands: <span class="pending">{{.Pending}}</span></p>
		<p>Executed Commands: <span class="completed">{{.History}}</span></p>
		<p>Active Users: {{.Sessions}}</p>
		<p>Server Time: {{.Now}}</p>
	</div>
	<div class="box">
		<h3>Recent Commands</h3>
		<ul>
		{{- range .Recent}}
			<li>{{.Username}} &rarr; {{if .Speed}}{{.Speed}}{{else}}{{.Type}}{{end}} ({{.Status}})</li>
		{{- end}}
		</ul>
	</div>
</body>
</html>
`))

type statusData struct {
	Pending  int
	History  int
	Sessions int
	Now      string
	Recent   []models.Command
}

// StatusPage handles GET / with a human-readable summary.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	view := h.engine.Stats(engine.RecentForPage)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, statusData{
		Pending:  view.Pending,
		History:  view.History,
		Sessions: view.Sessions,
		Now:      h.engine.Now().UTC().Format(time.RFC3339),
		Recent:   view.Recent,
	}); err != nil {
		h.logger.Error().Err(err).Msg("render status page")
	}
}
