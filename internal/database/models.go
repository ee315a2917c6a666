package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account that can authenticate against the API.
type User struct {
	gorm.Model
	Email        string  `gorm:"uniqueIndex;size:255"`
	PasswordHash string  `gorm:"size:255"`
	Profile      Profile `gorm:"constraint:OnDelete:CASCADE"`
}

// Profile is the canonical academic identity record for one user. Badges is a
// JSONB array of free-text skill tags shown in the Competências section.
type Profile struct {
	gorm.Model
	UserID           uint           `gorm:"uniqueIndex"`
	Nome             string         `gorm:"size:255" json:"nome"`
	CPF              string         `gorm:"size:32" json:"cpf,omitempty"`
	TipoPerfil       string         `gorm:"size:32" json:"tipo_perfil"`
	Badges           datatypes.JSON `gorm:"type:jsonb" json:"badges"`
	AvatarURL        string         `gorm:"size:512" json:"avatar_url,omitempty"`
	AvatarObjectKey  string         `gorm:"size:255" json:"-"`
	Bio              string         `gorm:"type:text" json:"bio,omitempty"`
	PreviewImageURL  string         `gorm:"size:512" json:"preview_image_url,omitempty"`
	PreviewObjectKey string         `gorm:"size:255" json:"-"`
}

// Profile types accepted by the registration flow.
const (
	ProfileTypeStudent   = "Estudante"
	ProfileTypeProfessor = "Professor"
)

// Experience is one professional experience entry.
type Experience struct {
	gorm.Model
	UserID    uint   `gorm:"index" json:"-"`
	Cargo     string `gorm:"size:255" json:"cargo"`
	Empresa   string `gorm:"size:255" json:"empresa"`
	Periodo   string `gorm:"size:128" json:"periodo,omitempty"`
	Local     string `gorm:"size:255" json:"local,omitempty"`
	Descricao string `gorm:"type:text" json:"descricao,omitempty"`
}

// Education is one academic background entry.
type Education struct {
	gorm.Model
	UserID      uint   `gorm:"index" json:"-"`
	Instituicao string `gorm:"size:255" json:"instituicao"`
	Curso       string `gorm:"size:255" json:"curso"`
	Grau        string `gorm:"size:128" json:"grau,omitempty"`
	Periodo     string `gorm:"size:128" json:"periodo,omitempty"`
	Descricao   string `gorm:"type:text" json:"descricao,omitempty"`
}

// Project is a portfolio project. Tecnologias is stored as a JSONB string
// array; the API layer also accepts a comma-delimited string and normalizes it
// before persisting.
type Project struct {
	gorm.Model
	UserID      uint           `gorm:"index" json:"-"`
	Titulo      string         `gorm:"size:255" json:"titulo"`
	Descricao   string         `gorm:"type:text" json:"descricao,omitempty"`
	Tecnologias datatypes.JSON `gorm:"type:jsonb" json:"tecnologias,omitempty"`
	Status      string         `gorm:"size:64" json:"status,omitempty"`
	Link        string         `gorm:"size:512" json:"link,omitempty"`
}

// Language is a spoken language plus proficiency level.
type Language struct {
	gorm.Model
	UserID uint   `gorm:"index" json:"-"`
	Idioma string `gorm:"size:128" json:"idioma"`
	Nivel  string `gorm:"size:64" json:"nivel"`
}

// Certificate is a course or training certificate.
type Certificate struct {
	gorm.Model
	UserID      uint   `gorm:"index" json:"-"`
	Titulo      string `gorm:"size:255" json:"titulo"`
	Instituicao string `gorm:"size:255" json:"instituicao"`
	DataEmissao string `gorm:"size:64" json:"data_emissao,omitempty"`
	Descricao   string `gorm:"type:text" json:"descricao,omitempty"`
}

// Publication is an academic publication entry.
type Publication struct {
	gorm.Model
	UserID         uint   `gorm:"index" json:"-"`
	Titulo         string `gorm:"size:512" json:"titulo"`
	Autores        string `gorm:"size:512" json:"autores"`
	Revista        string `gorm:"size:255" json:"revista,omitempty"`
	DataPublicacao string `gorm:"size:64" json:"data_publicacao,omitempty"`
	DOI            string `gorm:"size:255" json:"doi,omitempty"`
	Resumo         string `gorm:"type:text" json:"resumo,omitempty"`
	Link           string `gorm:"size:512" json:"link,omitempty"`
}

// CurriculumExport tracks one requested PDF export. ObjectKey is set when the
// primary storage path succeeded; FallbackToken when the document had to be
// parked in Redis for one-shot delivery.
type CurriculumExport struct {
	gorm.Model
	UserID        uint   `gorm:"index"`
	Status        string `gorm:"size:32"`
	ObjectKey     string `gorm:"size:512"`
	FallbackToken string `gorm:"size:64"`
	FileName      string `gorm:"size:255"`
	CorrelationID string `gorm:"size:64"`
}

// Export statuses.
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)
