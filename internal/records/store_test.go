package records

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"atlasacademico/internal/curriculum"
	"atlasacademico/internal/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestListExperiences_OrderedByCreation(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	for _, cargo := range []string{"Estagiário", "Desenvolvedor", "Tech Lead"} {
		rec := &database.Experience{UserID: 1, Cargo: cargo, Empresa: "Acme"}
		if err := store.CreateExperience(ctx, rec); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := store.ListExperiences(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 experiences, got %d", len(got))
	}
	want := []string{"Estagiário", "Desenvolvedor", "Tech Lead"}
	for i, w := range want {
		if got[i].Cargo != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Cargo, w)
		}
	}
}

func TestListExperiences_ScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	if err := store.CreateExperience(ctx, &database.Experience{UserID: 1, Cargo: "Mine"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateExperience(ctx, &database.Experience{UserID: 2, Cargo: "Theirs"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.ListExperiences(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Cargo != "Mine" {
		t.Fatalf("expected only user 1's record, got %+v", got)
	}
}

func TestDeleteRecord_RejectsForeignRows(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	rec := &database.Project{UserID: 1, Titulo: "Atlas"}
	if err := store.CreateProject(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.DeleteRecord(ctx, TableProjects, 2, rec.ID)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found for foreign user, got %v", err)
	}

	if err := store.DeleteRecord(ctx, TableProjects, 1, rec.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	got, err := store.ListProjects(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected project deleted, still have %d", len(got))
	}
}

func TestDeleteRecord_UnknownTable(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	err := store.DeleteRecord(context.Background(), "users", 1, 1)
	if !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestSearchProfiles_MatchesNameTypeAndBadges(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	profiles := []database.Profile{
		{UserID: 1, Nome: "Ana Silva", TipoPerfil: database.ProfileTypeStudent},
		{UserID: 2, Nome: "Bruno Costa", TipoPerfil: database.ProfileTypeProfessor},
		{UserID: 3, Nome: "Carla Dias", TipoPerfil: database.ProfileTypeStudent,
			Badges: datatypes.JSON(`["Machine Learning","Python"]`)},
	}
	for i := range profiles {
		if err := store.CreateProfile(ctx, &profiles[i]); err != nil {
			t.Fatalf("create profile: %v", err)
		}
	}

	byName, err := store.SearchProfiles(ctx, "ana")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byName) != 1 || byName[0].Nome != "Ana Silva" {
		t.Fatalf("name search: got %+v", byName)
	}

	byType, err := store.SearchProfiles(ctx, "professor")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byType) != 1 || byType[0].Nome != "Bruno Costa" {
		t.Fatalf("type search: got %+v", byType)
	}

	byBadge, err := store.SearchProfiles(ctx, "machine")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byBadge) != 1 || byBadge[0].Nome != "Carla Dias" {
		t.Fatalf("badge search: got %+v", byBadge)
	}

	all, err := store.SearchProfiles(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty query should return everything, got %d", len(all))
	}
}

func TestSuggestProfiles_LimitsToFive(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		p := database.Profile{UserID: uint(i + 1), Nome: fmt.Sprintf("Aluno %d", i), TipoPerfil: database.ProfileTypeStudent}
		if err := store.CreateProfile(ctx, &p); err != nil {
			t.Fatalf("create profile: %v", err)
		}
	}

	got, err := store.SuggestProfiles(ctx, "aluno")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(got))
	}

	none, err := store.SuggestProfiles(ctx, "   ")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("blank query should suggest nothing, got %d", len(none))
	}
}

func TestCurriculumFetcher_MissingProfile(t *testing.T) {
	store := NewStore(setupTestDB(t), nil)
	fetcher := NewCurriculumFetcher(store)

	_, err := fetcher.Profile(context.Background(), 42)
	if !errors.Is(err, curriculum.ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
}

func TestCurriculumFetcher_DecodesStoredShapes(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	fetcher := NewCurriculumFetcher(store)
	ctx := context.Background()

	profile := &database.Profile{
		UserID:     7,
		Nome:       "Ana Silva",
		TipoPerfil: database.ProfileTypeStudent,
		Bio:        "Pesquisadora",
		Badges:     datatypes.JSON(`["Python","SQL"]`),
	}
	if err := store.CreateProfile(ctx, profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	projects := []database.Project{
		{UserID: 7, Titulo: "Lista", Tecnologias: datatypes.JSON(`["React","Go"]`)},
		{UserID: 7, Titulo: "String", Tecnologias: datatypes.JSON(`"React, Go"`)},
		{UserID: 7, Titulo: "Vazio"},
	}
	for i := range projects {
		if err := store.CreateProject(ctx, &projects[i]); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}

	p, err := fetcher.Profile(ctx, 7)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(p.Badges) != 2 || p.Badges[0] != "Python" {
		t.Fatalf("badges not decoded: %+v", p.Badges)
	}

	got, err := fetcher.Projects(ctx, 7)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(got))
	}
	if got[0].Tecnologias.Join() != "React, Go" {
		t.Errorf("array form: got %q", got[0].Tecnologias.Join())
	}
	if got[1].Tecnologias.Join() != "React, Go" {
		t.Errorf("string form: got %q", got[1].Tecnologias.Join())
	}
	if len(got[2].Tecnologias) != 0 {
		t.Errorf("empty column should decode to empty list, got %+v", got[2].Tecnologias)
	}
}
