package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"lengthLabel": chat.LengthLabel,
	"price":       func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"cost":        func(v float64) string { return fmt.Sprintf("$%.4f", v) },
	"temperature": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).ParseFS(templateFS, "templates/*.html"))

// render executes the named page template. The page is buffered so a
// template error still produces a clean 500.
func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("dashboard: rendering %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type indexPage struct {
	ModelName string
	ChatModel string
}

// ServeIndex serves the landing page linking to both tools.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "index.html", indexPage{
		ModelName: d.estimator.ModelName(),
		ChatModel: d.sessions.Model(),
	})
}
