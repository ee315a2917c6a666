package curriculum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Data is the immutable snapshot the layout engine consumes: one profile plus
// the six related collections, each possibly empty but never nil.
type Data struct {
	Profile      Profile
	Experience   []Experience
	Education    []Education
	Projects     []Project
	Languages    []Language
	Certificates []Certificate
	Publications []Publication

	// failed names the collections whose fetch errored or timed out, filled
	// in by the aggregator. Empty-but-successful fetches are not failures.
	failed []string
}

// Profile carries the identity fields the document header and the
// Competências section need.
type Profile struct {
	Nome       string
	TipoPerfil string
	Bio        string
	Badges     []string
}

// Experience is one entry of the Experiência Profissional section.
type Experience struct {
	Cargo     string
	Empresa   string
	Periodo   string
	Descricao string
}

// Education is one entry of the Formação Acadêmica section.
type Education struct {
	Curso       string
	Instituicao string
	Grau        string
	Periodo     string
}

// Project is one entry of the Projetos section.
type Project struct {
	Titulo      string
	Descricao   string
	Status      string
	Tecnologias TechnologiesList
}

// Language is one entry of the Idiomas column.
type Language struct {
	Idioma string
	Nivel  string
}

// Certificate is one entry of the Certificados column.
type Certificate struct {
	Titulo      string
	Instituicao string
}

// Publication is one entry of the Publicações section.
type Publication struct {
	Titulo  string
	Autores string
	Revista string
}

// TechnologiesList normalizes the two shapes the technologies field arrives
// in: a JSON string array or a single delimited string. The layout engine only
// ever sees the normalized list.
type TechnologiesList []string

// UnmarshalJSON accepts ["React","Node.js"] as well as "React, Node.js".
func (t *TechnologiesList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = cleanTechnologies(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("technologies must be a string or a string array: %w", err)
	}
	*t = cleanTechnologies(strings.FieldsFunc(single, func(r rune) bool {
		return r == ',' || r == ';'
	}))
	return nil
}

// Join renders the list as the comma-separated line shown in the document.
func (t TechnologiesList) Join() string {
	return strings.Join(t, ", ")
}

func cleanTechnologies(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
