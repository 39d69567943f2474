package decl

import "testing"

const sampleProgram = `{
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {
        "counter": {"ty": "DInt", "src": {"value": 0}}
      },
      "body": [
        {"ty": "calc", "id": 1}
      ]
    }
  },
  "monitor": [["Main", "counter"]]
}`

func TestLoadExtractsBlockNameAndMonitor(t *testing.T) {
	doc, err := Load([]byte(sampleProgram))
	if err != nil {
		t.Fatal(err)
	}
	blk, ok := doc.Blocks["Main"]
	if !ok {
		t.Fatalf("expected block 'Main', got keys %v", keys(doc.Blocks))
	}
	if blk.Ty != "ob" {
		t.Fatalf("ty = %q", blk.Ty)
	}
	if len(doc.Monitor) != 1 || doc.Monitor[0][0] != "Main" {
		t.Fatalf("monitor = %v", doc.Monitor)
	}
}

func TestLoadExecutableSrc(t *testing.T) {
	doc, err := Load([]byte(sampleProgram))
	if err != nil {
		t.Fatal(err)
	}
	var src ExecutableSrc
	if err := ParseSrc(doc.Blocks["Main"].Src, &src); err != nil {
		t.Fatal(err)
	}
	if len(src.Static) != 1 {
		t.Fatalf("static members = %v", src.Static)
	}
	if len(src.Body) != 1 {
		t.Fatalf("body ops = %d", len(src.Body))
	}
}

func TestDuplicateBlockNameRejected(t *testing.T) {
	dup := `{
      "file:a/Main": {"ty": "ob", "src": {"body": []}},
      "file:b/Main": {"ty": "ob", "src": {"body": []}}
    }`
	if _, err := Load([]byte(dup)); err == nil {
		t.Fatal("expected duplicate block name to fail")
	}
}

func keys(m map[string]*BlockDecl) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
