package forms

import (
	"fmt"
	"strconv"
)

// Node is one rendered field, ready for the client to display. Rendering is
// a pure function of the form spec, the stored content, and the editable flag.
type Node struct {
	Kind     FieldKind `json:"kind"`
	Key      string    `json:"key,omitempty"`
	Label    string    `json:"label"`
	Input    string    `json:"input,omitempty"`
	Required bool      `json:"required,omitempty"`
	Disabled bool      `json:"disabled,omitempty"`

	Value    string   `json:"value,omitempty"`
	Selected []string `json:"selected,omitempty"`
	Options  []Option `json:"options,omitempty"`

	Children []Node   `json:"children,omitempty"`
	Items    [][]Node `json:"items,omitempty"`

	CanAddItem    bool `json:"can_add_item,omitempty"`
	CanRemoveItem bool `json:"can_remove_item,omitempty"`
}

// RenderSection renders every field of a section against the document.
// When editable is false all nodes come back disabled but fully populated,
// so a submitted form still shows its answers.
func RenderSection(section Section, content Doc, editable bool) []Node {
	nodes := make([]Node, 0, len(section.Fields))
	for i := range section.Fields {
		nodes = append(nodes, renderField(&section.Fields[i], content, Path{Index: -1}, editable))
	}
	return nodes
}

func renderField(field *FieldSpec, content Doc, at Path, editable bool) Node {
	node := Node{
		Kind:     field.Kind,
		Key:      field.Key,
		Label:    field.Label,
		Input:    field.Input,
		Required: field.Required,
		Disabled: !editable,
		Options:  field.Options,
	}

	if field.Kind == KindSectionTitle {
		return node
	}

	path := Path{Parent: at.Parent, Index: at.Index, Key: field.Key}
	value := content.Get(path)

	switch field.Kind {
	case KindText, KindTextarea, KindFileUpload, KindColorPicker:
		node.Value = AsString(value)
	case KindRadio:
		node.Value = selectedLabel(field.Options, AsString(value))
	case KindSelect:
		node.Value = selectedOption(field.Options, AsString(value))
	case KindSliderRange:
		node.Value = sliderValue(AsString(value))
	case KindCheckboxGroup:
		node.Selected = AsList(value).Strings()
	case KindGroup:
		node.Children = make([]Node, 0, len(field.Fields))
		for i := range field.Fields {
			child := renderField(&field.Fields[i], content, Path{Parent: field.Key, Index: -1}, editable)
			node.Children = append(node.Children, child)
		}
	case KindRepeater:
		renderRepeater(field, content, editable, &node)
	}

	return node
}

// selectedOption keeps stored select values honest: a value no longer in the
// option list renders as unset.
func selectedOption(options []Option, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			return value
		}
	}
	return ""
}

// selectedLabel is the radio counterpart of selectedOption. Radio values are
// matched against option labels, and stale labels render as unset.
func selectedLabel(options []Option, value string) string {
	for _, opt := range options {
		if opt.Label == value {
			return value
		}
	}
	return ""
}

func sliderValue(value string) string {
	n, err := strconv.Atoi(value)
	if err != nil {
		return strconv.Itoa(SliderDefault)
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return strconv.Itoa(n)
}

func renderRepeater(field *FieldSpec, content Doc, editable bool, node *Node) {
	items := AsList(content.Get(RootPath(field.Key)))
	count := len(items)
	if count == 0 {
		// an empty repeater still shows one blank item
		count = 1
	}

	node.Items = make([][]Node, 0, count)
	for i := 0; i < count; i++ {
		rendered := make([]Node, 0, len(field.Fields))
		for j := range field.Fields {
			child := renderField(&field.Fields[j], content, Path{Parent: field.Key, Index: i}, editable)
			rendered = append(rendered, child)
		}
		node.Items = append(node.Items, rendered)
	}

	node.CanAddItem = editable && count < field.MaxItemsOrDefault()
	node.CanRemoveItem = editable && count > field.MinItemsOrDefault()
}

// AddRepeaterItem appends an empty item to the repeater list, respecting the
// max bound.
func AddRepeaterItem(content Doc, field *FieldSpec) error {
	items := AsList(content.Get(RootPath(field.Key)))
	count := len(items)
	if count == 0 {
		count = 1
		items = List{Doc{}}
	}
	if count >= field.MaxItemsOrDefault() {
		return fmt.Errorf("repeater '%v' already has the maximum of %d items", field.Key, field.MaxItemsOrDefault())
	}
	content.Set(RootPath(field.Key), append(items, Doc{}))
	return nil
}

// RemoveRepeaterItem drops the item at the index, respecting the min bound.
func RemoveRepeaterItem(content Doc, field *FieldSpec, index int) error {
	items := AsList(content.Get(RootPath(field.Key)))
	count := len(items)
	if count == 0 {
		count = 1
	}
	if count <= field.MinItemsOrDefault() {
		return fmt.Errorf("repeater '%v' cannot go below %d items", field.Key, field.MinItemsOrDefault())
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("repeater '%v' has no item %d", field.Key, index)
	}
	content.Set(RootPath(field.Key), append(items[:index:index], items[index+1:]...))
	return nil
}
