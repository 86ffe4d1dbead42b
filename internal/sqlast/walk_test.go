package sqlast

import "testing"

func sampleTree() *Select {
	return &Select{
		Columns: []*SelectItem{{Expr: &ColumnRef{Name: "id"}}},
		From:    []Node{&Table{Name: "users"}},
		Where: &Comparison{
			Op:    OpEq,
			Left:  &ColumnRef{Name: "a"},
			Right: &Literal{Class: LitNumber, Text: "1"},
		},
	}
}

func TestWalk_PreOrderPaths(t *testing.T) {
	var kinds []Kind
	var paths []string
	Walk(sampleTree(), func(n Node, p Path) bool {
		kinds = append(kinds, n.Kind())
		paths = append(paths, p.String())
		return true
	})

	wantKinds := []Kind{
		KindSelect, KindSelectItem, KindColumnRef,
		KindTable, KindComparison, KindColumnRef, KindLiteral,
	}
	wantPaths := []string{".", "0", "0.0", "1", "2", "2.0", "2.1"}

	if len(kinds) != len(wantKinds) {
		t.Fatalf("visited %d nodes, want %d", len(kinds), len(wantKinds))
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("visit %d kind = %v, want %v", i, kinds[i], wantKinds[i])
		}
		if paths[i] != wantPaths[i] {
			t.Errorf("visit %d path = %q, want %q", i, paths[i], wantPaths[i])
		}
	}
}

func TestWalk_StopsDescent(t *testing.T) {
	count := 0
	Walk(sampleTree(), func(n Node, _ Path) bool {
		count++
		return n.Kind() != KindComparison
	})

	// the comparison's two operands are skipped
	if count != 5 {
		t.Errorf("visited %d nodes, want 5", count)
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	root := sampleTree()
	Walk(root, func(n Node, p Path) bool {
		got, ok := Resolve(root, p)
		if !ok {
			t.Fatalf("Resolve(%s) failed", p)
		}
		if got != n {
			t.Errorf("Resolve(%s) = %v, want the visited node", p, got)
		}
		return true
	})
}

func TestResolve_InvalidPath(t *testing.T) {
	root := sampleTree()
	if _, ok := Resolve(root, Path{9}); ok {
		t.Error("expected failure for out-of-range index")
	}
	if _, ok := Resolve(root, Path{0, 0, 0}); ok {
		t.Error("expected failure below a leaf")
	}
}

func TestPath_String(t *testing.T) {
	if got := (Path{}).String(); got != "." {
		t.Errorf("empty path = %q, want .", got)
	}
	if got := (Path{1, 2, 0}).String(); got != "1.2.0" {
		t.Errorf("path = %q, want 1.2.0", got)
	}
}

func TestCountNodes(t *testing.T) {
	if n := CountNodes(sampleTree()); n != 7 {
		t.Errorf("CountNodes = %d, want 7", n)
	}
}

func TestContainsKind(t *testing.T) {
	root := sampleTree()
	if !ContainsKind(root, KindComparison) {
		t.Error("expected to find a comparison")
	}
	if ContainsKind(root, KindJoin) {
		t.Error("no join in the tree")
	}
}

func TestTables_FirstAppearanceOrder(t *testing.T) {
	root := mustParse(t,
		"SELECT * FROM b JOIN a ON a.id = b.a_id WHERE EXISTS (SELECT 1 FROM c WHERE c.x = b.x) "+
			"UNION SELECT * FROM a JOIN b ON 1 = 1").Root

	got := Tables(root)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("tables = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tables = %v, want %v", got, want)
		}
	}
}
