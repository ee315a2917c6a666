package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"atlasacademico/internal/database"
	"atlasacademico/internal/records"
)

func newTestDB(t *testing.T) *gorm.DB {
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

func newRecordsContext(t *testing.T, method, body string, params gin.Params, userID uint) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, "/v1/records/x", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	c.Set("userID", userID)
	return c, w
}

func TestRecordsCreate_PersistsForCaller(t *testing.T) {
	db := newTestDB(t)
	h := NewRecordsHandler(records.NewStore(db, nil), nil)

	body := `{"cargo":"Desenvolvedora","empresa":"Acme","periodo":"2022 - Atual"}`
	c, w := newRecordsContext(t, http.MethodPost, body,
		gin.Params{{Key: "table", Value: records.TableExperiences}}, 1)

	h.Create(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var stored []database.Experience
	if err := db.Find(&stored).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 1 || stored[0].UserID != 1 || stored[0].Cargo != "Desenvolvedora" {
		t.Fatalf("unexpected stored rows: %+v", stored)
	}
}

func TestRecordsCreate_RejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)
	h := NewRecordsHandler(records.NewStore(db, nil), nil)

	c, w := newRecordsContext(t, http.MethodPost, `{"cargo":"x","empresa":"y"}`,
		gin.Params{{Key: "table", Value: "users"}}, 1)

	h.Create(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown table, got %d", w.Code)
	}
}

func TestRecordsCreate_NormalizesDelimitedTechnologies(t *testing.T) {
	db := newTestDB(t)
	h := NewRecordsHandler(records.NewStore(db, nil), nil)

	body := `{"titulo":"Atlas","tecnologias":"React, Node.js; Go"}`
	c, w := newRecordsContext(t, http.MethodPost, body,
		gin.Params{{Key: "table", Value: records.TableProjects}}, 1)

	h.Create(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Project
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	var techs []string
	if err := json.Unmarshal(stored.Tecnologias, &techs); err != nil {
		t.Fatalf("decode stored technologies: %v", err)
	}
	want := []string{"React", "Node.js", "Go"}
	if len(techs) != len(want) {
		t.Fatalf("got %v, want %v", techs, want)
	}
	for i := range want {
		if techs[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, techs[i], want[i])
		}
	}
}

func TestRecordsList_ReturnsOwnRowsOnly(t *testing.T) {
	db := newTestDB(t)
	store := records.NewStore(db, nil)
	h := NewRecordsHandler(store, nil)

	db.Create(&database.Language{UserID: 1, Idioma: "Inglês", Nivel: "Avançado"})
	db.Create(&database.Language{UserID: 2, Idioma: "Francês", Nivel: "Básico"})

	c, w := newRecordsContext(t, http.MethodGet, "",
		gin.Params{{Key: "table", Value: records.TableLanguages}}, 1)

	h.List(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Items []database.Language `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Idioma != "Inglês" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestRecordsDelete_OtherUsersRowIs404(t *testing.T) {
	db := newTestDB(t)
	h := NewRecordsHandler(records.NewStore(db, nil), nil)

	rec := database.Certificate{UserID: 2, Titulo: "Curso", Instituicao: "USP"}
	db.Create(&rec)

	c, w := newRecordsContext(t, http.MethodDelete, "",
		gin.Params{
			{Key: "table", Value: records.TableCertificates},
			{Key: "id", Value: strconv.Itoa(int(rec.ID))},
		}, 1)

	h.Delete(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign row, got %d", w.Code)
	}

	var count int64
	db.Model(&database.Certificate{}).Count(&count)
	if count != 1 {
		t.Fatalf("row should survive, count=%d", count)
	}
}
