package forms

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type FieldKind string

const (
	KindText          FieldKind = "text"
	KindTextarea      FieldKind = "textarea"
	KindSelect        FieldKind = "select"
	KindRadio         FieldKind = "radio"
	KindCheckboxGroup FieldKind = "checkbox_group"
	KindFileUpload    FieldKind = "file_upload"
	KindSliderRange   FieldKind = "slider_range"
	KindColorPicker   FieldKind = "color_picker"
	KindRepeater      FieldKind = "repeater"
	KindGroup         FieldKind = "group"
	KindSectionTitle  FieldKind = "section_title"
)

// Text input subtypes. These refine KindText only; they do not change the
// value shape, which is always a single scalar.
const (
	InputEmail  = "email"
	InputTel    = "tel"
	InputNumber = "number"
	InputDate   = "date"
)

const (
	DefaultMinItems = 1
	DefaultMaxItems = 5

	SliderDefault = 50
)

type Option struct {
	Label  string `yaml:"label" json:"label"`
	Value  string `yaml:"value" json:"value"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// FieldSpec is one field in the deployed form definition. Group and repeater
// fields carry child fields; nesting is exactly one level deep.
type FieldSpec struct {
	Key      string    `yaml:"key" json:"key"`
	Kind     FieldKind `yaml:"kind" json:"kind"`
	Label    string    `yaml:"label" json:"label"`
	Input    string    `yaml:"input,omitempty" json:"input,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`

	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`

	Fields []FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`

	MinItems int `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	MaxItems int `yaml:"max_items,omitempty" json:"max_items,omitempty"`
}

func (f *FieldSpec) IsContainer() bool {
	return f.Kind == KindGroup || f.Kind == KindRepeater
}

// MinItemsOrDefault and MaxItemsOrDefault apply the repeater bounds defaults.
func (f *FieldSpec) MinItemsOrDefault() int {
	if f.MinItems <= 0 {
		return DefaultMinItems
	}
	return f.MinItems
}

func (f *FieldSpec) MaxItemsOrDefault() int {
	if f.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return f.MaxItems
}

type Section struct {
	Title  string      `yaml:"title" json:"title"`
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

type FormSpec struct {
	Name     string    `yaml:"name" json:"name"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// LoadSpec reads a form definition from YAML and validates it.
func LoadSpec(r io.Reader) (FormSpec, error) {
	var spec FormSpec
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&spec); err != nil {
		return FormSpec{}, fmt.Errorf("error parsing form spec: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return FormSpec{}, err
	}

	return spec, nil
}

func choiceKind(kind FieldKind) bool {
	return kind == KindSelect || kind == KindRadio || kind == KindCheckboxGroup
}

func validateFields(fields []FieldSpec, container string) error {
	seen := map[string]struct{}{}
	for i := range fields {
		field := &fields[i]

		if field.Kind == KindSectionTitle {
			// display only, carries no key or value
			continue
		}

		if field.Key == "" {
			return fmt.Errorf("field %d in %v is missing a key", i, container)
		}
		if _, ok := seen[field.Key]; ok {
			return fmt.Errorf("duplicate field key '%v' in %v", field.Key, container)
		}
		seen[field.Key] = struct{}{}

		if choiceKind(field.Kind) && len(field.Options) == 0 {
			return fmt.Errorf("field '%v' of kind %v has no options", field.Key, field.Kind)
		}

		if field.IsContainer() {
			if container != "root" {
				return fmt.Errorf("field '%v': %v fields cannot be nested inside '%v'", field.Key, field.Kind, container)
			}
			if len(field.Fields) == 0 {
				return fmt.Errorf("field '%v' of kind %v has no child fields", field.Key, field.Kind)
			}
			if field.Kind == KindRepeater && field.MinItemsOrDefault() > field.MaxItemsOrDefault() {
				return fmt.Errorf("field '%v': min_items exceeds max_items", field.Key)
			}
			if err := validateFields(field.Fields, field.Key); err != nil {
				return err
			}
		} else if len(field.Fields) != 0 {
			return fmt.Errorf("field '%v' of kind %v cannot have child fields", field.Key, field.Kind)
		}
	}
	return nil
}

func (s *FormSpec) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("form spec '%v' has no sections", s.Name)
	}
	for _, section := range s.Sections {
		if err := validateFields(section.Fields, "root"); err != nil {
			return fmt.Errorf("invalid section '%v': %w", section.Title, err)
		}
	}
	return nil
}

// OnboardingSpec is the built-in guardian onboarding wizard definition, used
// when no spec file is deployed.
func OnboardingSpec() FormSpec {
	return FormSpec{
		Name: "onboarding",
		Sections: []Section{
			{
				Title: "Dados Pessoais",
				Fields: []FieldSpec{
					{Kind: KindSectionTitle, Label: "Quem é você"},
					{Key: "nome", Kind: KindText, Label: "Nome", Required: true},
					{Key: "sobrenome", Kind: KindText, Label: "Sobrenome", Required: true},
					{Key: "nome_espiritual", Kind: KindText, Label: "Nome espiritual"},
					{Key: "nascimento", Kind: KindText, Input: InputDate, Label: "Data de nascimento"},
					{Key: "foto_perfil", Kind: KindFileUpload, Label: "Foto de perfil"},
					{Key: "cor_favorita", Kind: KindColorPicker, Label: "Cor favorita"},
				},
			},
			{
				Title: "Contato",
				Fields: []FieldSpec{
					{Key: "contato", Kind: KindGroup, Label: "Contato", Fields: []FieldSpec{
						{Key: "telefone", Kind: KindText, Input: InputTel, Label: "Telefone", Required: true},
						{Key: "email", Kind: KindText, Input: InputEmail, Label: "Email"},
						{Key: "endereco", Kind: KindTextarea, Label: "Endereço"},
					}},
					{Key: "emergencia", Kind: KindRepeater, Label: "Contato de emergência", MinItems: 1, MaxItems: 2, Fields: []FieldSpec{
						{Key: "nome", Kind: KindText, Label: "Nome", Required: true},
						{Key: "telefone", Kind: KindText, Input: InputTel, Label: "Telefone", Required: true},
						{Key: "parentesco", Kind: KindText, Label: "Parentesco"},
					}},
				},
			},
			{
				Title: "Trabalho",
				Fields: []FieldSpec{
					{Key: "disponibilidade", Kind: KindSelect, Label: "Disponibilidade", Options: []Option{
						{Label: "Integral", Value: "integral"},
						{Label: "Meio período", Value: "meio_periodo"},
						{Label: "Esporádico", Value: "esporadico"},
					}},
					{Key: "experiencia", Kind: KindRadio, Label: "Experiência com produção", Options: []Option{
						{Label: "Nenhuma"},
						{Label: "Alguma", Detail: "já trabalhou com artesanato"},
						{Label: "Muita", Detail: "produção é sua atividade principal"},
					}},
					{Key: "habilidades", Kind: KindCheckboxGroup, Label: "Habilidades", Options: []Option{
						{Label: "Costura"},
						{Label: "Tecelagem"},
						{Label: "Cerâmica"},
						{Label: "Pintura"},
					}},
					{Key: "dedicacao", Kind: KindSliderRange, Label: "Dedicação semanal"},
					{Key: "observacoes", Kind: KindTextarea, Label: "Observações"},
				},
			},
		},
	}
}
