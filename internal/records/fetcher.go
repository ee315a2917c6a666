package records

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"atlasacademico/internal/curriculum"
)

// CurriculumFetcher adapts the Store to the shape the document aggregator
// consumes, translating stored rows into layout-ready values. It is the only
// place where JSONB columns are decoded for the document pipeline.
type CurriculumFetcher struct {
	store *Store
}

// NewCurriculumFetcher wraps a Store for use by the aggregator.
func NewCurriculumFetcher(store *Store) *CurriculumFetcher {
	return &CurriculumFetcher{store: store}
}

func (f *CurriculumFetcher) Profile(ctx context.Context, userID uint) (*curriculum.Profile, error) {
	p, err := f.store.ProfileByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, curriculum.ErrProfileMissing
	}
	if err != nil {
		return nil, err
	}
	return &curriculum.Profile{
		Nome:       p.Nome,
		TipoPerfil: p.TipoPerfil,
		Bio:        p.Bio,
		Badges:     DecodeBadges(p.Badges),
	}, nil
}

func (f *CurriculumFetcher) Experience(ctx context.Context, userID uint) ([]curriculum.Experience, error) {
	rows, err := f.store.ListExperiences(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Experience, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Experience{
			Cargo:     r.Cargo,
			Empresa:   r.Empresa,
			Periodo:   r.Periodo,
			Descricao: r.Descricao,
		}
	}
	return out, nil
}

func (f *CurriculumFetcher) Education(ctx context.Context, userID uint) ([]curriculum.Education, error) {
	rows, err := f.store.ListEducation(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Education, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Education{
			Curso:       r.Curso,
			Instituicao: r.Instituicao,
			Grau:        r.Grau,
			Periodo:     r.Periodo,
		}
	}
	return out, nil
}

func (f *CurriculumFetcher) Projects(ctx context.Context, userID uint) ([]curriculum.Project, error) {
	rows, err := f.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Project, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Project{
			Titulo:      r.Titulo,
			Descricao:   r.Descricao,
			Status:      r.Status,
			Tecnologias: decodeTechnologies(r.Tecnologias),
		}
	}
	return out, nil
}

func (f *CurriculumFetcher) Languages(ctx context.Context, userID uint) ([]curriculum.Language, error) {
	rows, err := f.store.ListLanguages(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Language, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Language{Idioma: r.Idioma, Nivel: r.Nivel}
	}
	return out, nil
}

func (f *CurriculumFetcher) Certificates(ctx context.Context, userID uint) ([]curriculum.Certificate, error) {
	rows, err := f.store.ListCertificates(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Certificate, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Certificate{Titulo: r.Titulo, Instituicao: r.Instituicao}
	}
	return out, nil
}

func (f *CurriculumFetcher) Publications(ctx context.Context, userID uint) ([]curriculum.Publication, error) {
	rows, err := f.store.ListPublications(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Publication, len(rows))
	for i, r := range rows {
		out[i] = curriculum.Publication{
			Titulo:  r.Titulo,
			Autores: r.Autores,
			Revista: r.Revista,
		}
	}
	return out, nil
}

// decodeTechnologies normalizes the stored JSONB value, which historically can
// be either a string array or a single delimited string. Malformed values
// degrade to an empty list rather than failing the whole export.
func decodeTechnologies(raw datatypes.JSON) curriculum.TechnologiesList {
	if len(raw) == 0 {
		return curriculum.TechnologiesList{}
	}
	var techs curriculum.TechnologiesList
	if err := json.Unmarshal(raw, &techs); err != nil {
		return curriculum.TechnologiesList{}
	}
	return techs
}

// EncodeTechnologies normalizes an incoming technologies value, array or
// delimited string, into the JSONB array form persisted on projects.
func EncodeTechnologies(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var techs curriculum.TechnologiesList
	if err := json.Unmarshal(raw, &techs); err != nil {
		return nil, err
	}
	return json.Marshal([]string(techs))
}

var _ curriculum.Fetcher = (*CurriculumFetcher)(nil)
