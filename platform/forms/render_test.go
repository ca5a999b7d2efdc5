package forms

import (
	"strings"
	"testing"
)

func onboardingField(t *testing.T, key string) *FieldSpec {
	t.Helper()
	spec := OnboardingSpec()
	for i := range spec.Sections {
		for j := range spec.Sections[i].Fields {
			if spec.Sections[i].Fields[j].Key == key {
				return &spec.Sections[i].Fields[j]
			}
		}
	}
	t.Fatalf("onboarding spec has no field %v", key)
	return nil
}

func findNode(nodes []Node, key string) *Node {
	for i := range nodes {
		if nodes[i].Key == key {
			return &nodes[i]
		}
	}
	return nil
}

func TestPathAddressing(t *testing.T) {
	doc := Doc{}

	doc.Set(RootPath("nome"), Scalar("Maria"))
	doc.Set(GroupPath("contato", "telefone"), Scalar("555-0101"))
	doc.Set(ItemPath("emergencia", 1, "nome"), Scalar("João"))

	if got := AsString(doc.Get(RootPath("nome"))); got != "Maria" {
		t.Fatalf("expected Maria, got %v", got)
	}
	if got := AsString(doc.Get(GroupPath("contato", "telefone"))); got != "555-0101" {
		t.Fatalf("expected phone value, got %v", got)
	}
	if got := AsString(doc.Get(ItemPath("emergencia", 1, "nome"))); got != "João" {
		t.Fatalf("expected João, got %v", got)
	}

	// setting index 1 first must have synthesized an empty item at 0
	items := AsList(doc.Get(RootPath("emergencia")))
	if len(items) != 2 {
		t.Fatalf("expected 2 repeater items, got %d", len(items))
	}
	if got := AsString(doc.Get(ItemPath("emergencia", 0, "nome"))); got != "" {
		t.Fatalf("expected empty item at index 0, got %v", got)
	}
}

func TestGetWrongShapeReturnsNil(t *testing.T) {
	doc := Doc{"contato": Scalar("not a group")}
	if v := doc.Get(GroupPath("contato", "telefone")); v != nil {
		t.Fatalf("expected nil for mis-shaped container, got %v", v)
	}
	if v := doc.Get(ItemPath("contato", 0, "telefone")); v != nil {
		t.Fatalf("expected nil for mis-shaped list, got %v", v)
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	doc := Doc{
		"nome":    Scalar("Maria"),
		"contato": Doc{"telefone": Scalar("555-0101")},
		"emergencia": List{
			Doc{"nome": Scalar("João"), "parentesco": Scalar("irmão")},
		},
		"habilidades": List{Scalar("Costura"), Scalar("Pintura")},
	}

	encoded, err := EncodeDoc(doc)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeDoc(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if got := AsString(decoded.Get(GroupPath("contato", "telefone"))); got != "555-0101" {
		t.Fatalf("phone lost in roundtrip, got %v", got)
	}
	if got := AsString(decoded.Get(ItemPath("emergencia", 0, "nome"))); got != "João" {
		t.Fatalf("repeater item lost in roundtrip, got %v", got)
	}
	if skills := AsList(decoded.Get(RootPath("habilidades"))); !skills.Contains("Pintura") {
		t.Fatalf("checkbox selection lost in roundtrip")
	}
}

func TestDecodeEmptyContent(t *testing.T) {
	doc, err := DecodeDoc("")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected empty doc, got %v", doc)
	}
}

func TestRenderReadOnlyKeepsValues(t *testing.T) {
	spec := OnboardingSpec()
	doc := Doc{"nome": Scalar("Maria"), "sobrenome": Scalar("Silva")}

	nodes := RenderSection(spec.Sections[0], doc, false)

	node := findNode(nodes, "nome")
	if node == nil {
		t.Fatal("missing nome node")
	}
	if !node.Disabled {
		t.Fatal("expected node to be disabled in read only mode")
	}
	if node.Value != "Maria" {
		t.Fatalf("read only render must keep the value, got %v", node.Value)
	}
}

func TestRenderSliderDefault(t *testing.T) {
	spec := OnboardingSpec()
	nodes := RenderSection(spec.Sections[2], Doc{}, true)

	node := findNode(nodes, "dedicacao")
	if node == nil {
		t.Fatal("missing dedicacao node")
	}
	if node.Value != "50" {
		t.Fatalf("expected slider default 50, got %v", node.Value)
	}
}

func TestRenderSelectUnknownValueIsUnset(t *testing.T) {
	spec := OnboardingSpec()
	doc := Doc{"disponibilidade": Scalar("retired_option")}
	nodes := RenderSection(spec.Sections[2], doc, true)

	node := findNode(nodes, "disponibilidade")
	if node == nil {
		t.Fatal("missing disponibilidade node")
	}
	if node.Value != "" {
		t.Fatalf("stale select value must render unset, got %v", node.Value)
	}
}

func TestRenderRadioStaleLabelIsUnset(t *testing.T) {
	spec := OnboardingSpec()
	doc := Doc{"experiencia": Scalar("Alguma")}
	nodes := RenderSection(spec.Sections[2], doc, true)

	node := findNode(nodes, "experiencia")
	if node == nil {
		t.Fatal("missing experiencia node")
	}
	if node.Value != "Alguma" {
		t.Fatalf("expected matching radio label to render, got %v", node.Value)
	}

	doc = Doc{"experiencia": Scalar("Retired answer")}
	nodes = RenderSection(spec.Sections[2], doc, true)

	node = findNode(nodes, "experiencia")
	if node.Value != "" {
		t.Fatalf("stale radio label must render unset, got %v", node.Value)
	}
}

func TestRenderEmptyRepeaterSynthesizesItem(t *testing.T) {
	spec := OnboardingSpec()
	nodes := RenderSection(spec.Sections[1], Doc{}, true)

	node := findNode(nodes, "emergencia")
	if node == nil {
		t.Fatal("missing emergencia node")
	}
	if len(node.Items) != 1 {
		t.Fatalf("expected one synthesized item, got %d", len(node.Items))
	}
	if node.CanRemoveItem {
		t.Fatal("single item must not be removable at min bound")
	}
	if !node.CanAddItem {
		t.Fatal("expected add to be allowed below max bound")
	}
}

func TestRepeaterBounds(t *testing.T) {
	field := onboardingField(t, "emergencia")
	doc := Doc{}

	if err := AddRepeaterItem(doc, field); err != nil {
		t.Fatal(err)
	}
	if err := AddRepeaterItem(doc, field); err == nil {
		t.Fatal("expected error adding past max_items")
	} else if !strings.Contains(err.Error(), "maximum") {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := RemoveRepeaterItem(doc, field, 1); err != nil {
		t.Fatal(err)
	}
	if err := RemoveRepeaterItem(doc, field, 0); err == nil {
		t.Fatal("expected error removing below min_items")
	}
}

func TestCheckboxToggle(t *testing.T) {
	var list List
	list = list.Toggle("Costura")
	list = list.Toggle("Pintura")
	list = list.Toggle("Costura")

	if list.Contains("Costura") {
		t.Fatal("second toggle should remove the selection")
	}
	if !list.Contains("Pintura") {
		t.Fatal("unrelated selection should survive toggles")
	}
}

func TestSpecValidation(t *testing.T) {
	spec := OnboardingSpec()
	if err := spec.Validate(); err != nil {
		t.Fatalf("builtin spec must validate: %v", err)
	}

	bad := FormSpec{Name: "bad", Sections: []Section{{
		Title: "s",
		Fields: []FieldSpec{
			{Key: "a", Kind: KindText, Label: "a"},
			{Key: "a", Kind: KindText, Label: "dup"},
		},
	}}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected duplicate key error")
	}

	nested := FormSpec{Name: "nested", Sections: []Section{{
		Title: "s",
		Fields: []FieldSpec{
			{Key: "outer", Kind: KindGroup, Label: "outer", Fields: []FieldSpec{
				{Key: "inner", Kind: KindRepeater, Label: "inner", Fields: []FieldSpec{
					{Key: "x", Kind: KindText, Label: "x"},
				}},
			}},
		},
	}}}
	if err := nested.Validate(); err == nil {
		t.Fatal("expected nesting depth error")
	}
}

func TestLoadSpecYaml(t *testing.T) {
	yaml := `
name: custom
sections:
  - title: Basics
    fields:
      - key: nome
        kind: text
        label: Nome
        required: true
      - key: pets
        kind: repeater
        label: Pets
        max_items: 3
        fields:
          - key: nome
            kind: text
            label: Nome
`
	spec, err := LoadSpec(strings.NewReader(yaml))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "custom" || len(spec.Sections) != 1 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	pets := spec.Sections[0].Fields[1]
	if pets.MinItemsOrDefault() != 1 || pets.MaxItemsOrDefault() != 3 {
		t.Fatalf("unexpected repeater bounds: %d..%d", pets.MinItemsOrDefault(), pets.MaxItemsOrDefault())
	}
}
