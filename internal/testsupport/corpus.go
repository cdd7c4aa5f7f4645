package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteCorpus writes corpus files into dir, creating it when needed.
func WriteCorpus(t testing.TB, dir string, files map[string]string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir corpus %s: %v", dir, err)
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// CoffeeCorpus returns a two-seed corpus whose first seed carries an
// accepted basket on its terminal unit and whose second seed has none.
// Every target token is taught.
func CoffeeCorpus() map[string]string {
	return map[string]string{
		"seeds.yaml": `seeds:
  - known: I want coffee
    target: quiero café
  - known: not now
    target: ahora no
`,
		"units.yaml": `units:
  - id: S0001L01
    known: I want
    target: quiero
  - id: S0001L02
    known: coffee
    target: café
    terminal: true
  - id: S0002L01
    known: now
    target: ahora
  - id: S0002L02
    known: not
    target: "no"
    terminal: true
`,
		"proposals.yaml": `baskets:
  S0001L02:
    - {known: coffee, target: café}
    - {known: I want, target: quiero}
    - {known: "coffee, I want", target: "café, quiero"}
    - {known: I really want coffee, target: "quiero café, quiero"}
    - {known: "I want coffee, coffee", target: "quiero café, café"}
    - {known: I want coffee and I want coffee, target: "quiero café, quiero café"}
    - {known: "coffee, I want coffee, I want", target: "café, quiero café, quiero"}
    - {known: "I want coffee, I want coffee", target: "quiero café, quiero café"}
    - {known: "I want coffee and coffee, I want", target: "quiero café, café, quiero"}
    - {known: I want coffee, target: quiero café}
`,
		"presentations.yaml": `presentations:
  - unit: S0001L01
    text: Here is how you say you want something.
`,
	}
}

// WithConjunction rewrites phrase #6 of the coffee basket to join its clauses
// with the untaught one-character word "y".
func WithConjunction(files map[string]string) map[string]string {
	files["proposals.yaml"] = strings.Replace(files["proposals.yaml"],
		`target: "quiero café, quiero café"}`,
		`target: "quiero café y quiero café"}`, 1)
	return files
}
