package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"atlasacademico/internal/database"
)

// Table names for the six curriculum collections. Handlers accept only these.
const (
	TableExperiences  = "experiences"
	TableEducation    = "education"
	TableProjects     = "projects"
	TableLanguages    = "languages"
	TableCertificates = "certificates"
	TablePublications = "publications"
)

// ErrUnknownTable is returned for table names outside the whitelist.
var ErrUnknownTable = errors.New("unknown record table")

// KnownTable reports whether name is one of the curriculum collection tables.
func KnownTable(name string) bool {
	switch name {
	case TableExperiences, TableEducation, TableProjects,
		TableLanguages, TableCertificates, TablePublications:
		return true
	}
	return false
}

// Store owns all database access for profiles and the six curriculum
// collections. Collection reads go through the cache; every write invalidates
// the owning user's entry for that table.
type Store struct {
	db    *gorm.DB
	cache *Cache
}

// NewStore builds a Store. cache may be nil, which disables caching.
func NewStore(db *gorm.DB, cache *Cache) *Store {
	return &Store{db: db, cache: cache}
}

func listRecords[T any](ctx context.Context, s *Store, table string, userID uint) ([]T, error) {
	var items []T
	if s.cache.Get(ctx, table, userID, &items) {
		return items, nil
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	s.cache.Set(ctx, table, userID, items)
	return items, nil
}

func createRecord[T any](ctx context.Context, s *Store, table string, userID uint, record *T) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	s.cache.Invalidate(ctx, table, userID)
	return nil
}

func deleteRecord[T any](ctx context.Context, s *Store, table string, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.cache.Invalidate(ctx, table, userID)
	return nil
}

func (s *Store) ListExperiences(ctx context.Context, userID uint) ([]database.Experience, error) {
	return listRecords[database.Experience](ctx, s, TableExperiences, userID)
}

func (s *Store) ListEducation(ctx context.Context, userID uint) ([]database.Education, error) {
	return listRecords[database.Education](ctx, s, TableEducation, userID)
}

func (s *Store) ListProjects(ctx context.Context, userID uint) ([]database.Project, error) {
	return listRecords[database.Project](ctx, s, TableProjects, userID)
}

func (s *Store) ListLanguages(ctx context.Context, userID uint) ([]database.Language, error) {
	return listRecords[database.Language](ctx, s, TableLanguages, userID)
}

func (s *Store) ListCertificates(ctx context.Context, userID uint) ([]database.Certificate, error) {
	return listRecords[database.Certificate](ctx, s, TableCertificates, userID)
}

func (s *Store) ListPublications(ctx context.Context, userID uint) ([]database.Publication, error) {
	return listRecords[database.Publication](ctx, s, TablePublications, userID)
}

func (s *Store) CreateExperience(ctx context.Context, rec *database.Experience) error {
	return createRecord(ctx, s, TableExperiences, rec.UserID, rec)
}

func (s *Store) CreateEducation(ctx context.Context, rec *database.Education) error {
	return createRecord(ctx, s, TableEducation, rec.UserID, rec)
}

func (s *Store) CreateProject(ctx context.Context, rec *database.Project) error {
	return createRecord(ctx, s, TableProjects, rec.UserID, rec)
}

func (s *Store) CreateLanguage(ctx context.Context, rec *database.Language) error {
	return createRecord(ctx, s, TableLanguages, rec.UserID, rec)
}

func (s *Store) CreateCertificate(ctx context.Context, rec *database.Certificate) error {
	return createRecord(ctx, s, TableCertificates, rec.UserID, rec)
}

func (s *Store) CreatePublication(ctx context.Context, rec *database.Publication) error {
	return createRecord(ctx, s, TablePublications, rec.UserID, rec)
}

// DeleteRecord removes a record from the named table, scoped to the owning
// user. Returns gorm.ErrRecordNotFound when the row does not exist or belongs
// to someone else.
func (s *Store) DeleteRecord(ctx context.Context, table string, userID, id uint) error {
	switch table {
	case TableExperiences:
		return deleteRecord[database.Experience](ctx, s, table, userID, id)
	case TableEducation:
		return deleteRecord[database.Education](ctx, s, table, userID, id)
	case TableProjects:
		return deleteRecord[database.Project](ctx, s, table, userID, id)
	case TableLanguages:
		return deleteRecord[database.Language](ctx, s, table, userID, id)
	case TableCertificates:
		return deleteRecord[database.Certificate](ctx, s, table, userID, id)
	case TablePublications:
		return deleteRecord[database.Publication](ctx, s, table, userID, id)
	}
	return ErrUnknownTable
}

// ProfileByUserID loads the profile owned by userID.
func (s *Store) ProfileByUserID(ctx context.Context, userID uint) (*database.Profile, error) {
	var profile database.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByID loads a profile by its own primary key, for public pages.
func (s *Store) ProfileByID(ctx context.Context, id uint) (*database.Profile, error) {
	var profile database.Profile
	err := s.db.WithContext(ctx).First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile inserts a new profile row.
func (s *Store) CreateProfile(ctx context.Context, profile *database.Profile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateProfile persists the given profile and drops its cached entry.
func (s *Store) UpdateProfile(ctx context.Context, profile *database.Profile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	s.cache.Invalidate(ctx, "profiles", profile.UserID)
	return nil
}

const searchFetchLimit = 50

// SearchProfiles fetches a bounded batch and filters in memory so a single
// query term can match name, profile type or any badge.
func (s *Store) SearchProfiles(ctx context.Context, query string) ([]database.Profile, error) {
	var profiles []database.Profile
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(searchFetchLimit).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return profiles, nil
	}
	matched := make([]database.Profile, 0, len(profiles))
	for _, p := range profiles {
		if profileMatches(&p, q) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func profileMatches(p *database.Profile, q string) bool {
	if strings.Contains(strings.ToLower(p.Nome), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.TipoPerfil), q) {
		return true
	}
	for _, badge := range DecodeBadges(p.Badges) {
		if strings.Contains(strings.ToLower(badge), q) {
			return true
		}
	}
	return false
}

const suggestLimit = 5

// SuggestProfiles returns up to five profiles whose name or type contains the
// prefix, for the search box typeahead.
func (s *Store) SuggestProfiles(ctx context.Context, query string) ([]database.Profile, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	pattern := "%" + q + "%"
	var profiles []database.Profile
	err := s.db.WithContext(ctx).
		Where("LOWER(nome) LIKE ? OR LOWER(tipo_perfil) LIKE ?", pattern, pattern).
		Order("nome ASC").
		Limit(suggestLimit).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("suggest profiles: %w", err)
	}
	return profiles, nil
}

// DecodeBadges decodes the profile badges JSON column, tolerating null and
// malformed content.
func DecodeBadges(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var badges []string
	if err := json.Unmarshal(raw, &badges); err != nil {
		return []string{}
	}
	if badges == nil {
		return []string{}
	}
	return badges
}
