package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openAPIDocument []byte

// docsPage renders the bundled document with Redoc. Generation and history
// operations are expanded by default; schemas stay collapsed.
const docsPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>photofx companion API</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{margin:0}</style>
</head>
<body>
<div id="docs"></div>
<script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
<script>
Redoc.init("/v1/openapi.json", {
  expandResponses: "200,204",
  hideDownloadButton: false,
  jsonSampleExpandLevel: 2,
  sortPropsAlphabetically: true
}, document.getElementById("docs"));
</script>
</body>
</html>`

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(openAPIDocument)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
