package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

func TestHTML(t *testing.T) {
	const doc = `<!DOCTYPE html>
<html>
<head>
  <title> El   gato </title>
  <style>body { color: red; }</style>
</head>
<body>
  <h1>Gatos</h1>
  <p>El gato se sentó.
     Luego durmió.</p>
  <script>var x = "hidden";</script>
  <noscript>also hidden</noscript>
  <p>Fin</p>
</body>
</html>`

	page, err := HTML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "El gato" {
		t.Errorf("Title = %q, want %q", page.Title, "El gato")
	}
	want := "Gatos El gato se sentó. Luego durmió. Fin"
	if page.Body != want {
		t.Errorf("Body = %q, want %q", page.Body, want)
	}
}

func TestHTMLWithoutMarkup(t *testing.T) {
	page, err := HTML(strings.NewReader("just text"))
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "" || page.Body != "just text" {
		t.Errorf("page = %+v", page)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	if err := os.WriteFile(path, []byte("<title>T</title><p>B</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	page, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "T" || page.Body != "B" {
		t.Errorf("page = %+v", page)
	}

	_, err = File(filepath.Join(t.TempDir(), "missing.html"))
	if !errors.Is(err, apperrors.ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}
