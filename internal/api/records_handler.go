package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"atlasacademico/internal/api/middleware"
	"atlasacademico/internal/database"
	"atlasacademico/internal/records"
)

// RecordsHandler serves CRUD for the six curriculum collections. The table
// name comes from the URL and is checked against the whitelist before any
// database work.
type RecordsHandler struct {
	store  *records.Store
	logger *slog.Logger
}

// NewRecordsHandler builds the records handler.
func NewRecordsHandler(store *records.Store, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{store: store, logger: logger}
}

// List returns the caller's records for one table, oldest first.
func (h *RecordsHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	table := c.Param("table")
	if !records.KnownTable(table) {
		NotFound(c, "unknown collection")
		return
	}

	ctx := c.Request.Context()
	var (
		items any
		err   error
	)
	switch table {
	case records.TableExperiences:
		items, err = h.store.ListExperiences(ctx, userID)
	case records.TableEducation:
		items, err = h.store.ListEducation(ctx, userID)
	case records.TableProjects:
		items, err = h.store.ListProjects(ctx, userID)
	case records.TableLanguages:
		items, err = h.store.ListLanguages(ctx, userID)
	case records.TableCertificates:
		items, err = h.store.ListCertificates(ctx, userID)
	case records.TablePublications:
		items, err = h.store.ListPublications(ctx, userID)
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("list records failed",
			slog.String("table", table), slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Create inserts one record into the named table for the caller.
func (h *RecordsHandler) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	table := c.Param("table")
	if !records.KnownTable(table) {
		NotFound(c, "unknown collection")
		return
	}

	logger := middleware.LoggerFromContext(c).With(
		slog.String("table", table),
		slog.Uint64("user_id", uint64(userID)),
	)

	created, err := h.createForTable(c, table, userID)
	if err != nil {
		if errors.Is(err, errBadRecordBody) {
			return // response already written
		}
		logger.Error("create record failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("record created")
	c.JSON(http.StatusCreated, created)
}

var errBadRecordBody = errors.New("bad record body")

func (h *RecordsHandler) createForTable(c *gin.Context, table string, userID uint) (any, error) {
	ctx := c.Request.Context()

	switch table {
	case records.TableExperiences:
		var req struct {
			Cargo     string `json:"cargo" binding:"required,max=255"`
			Empresa   string `json:"empresa" binding:"required,max=255"`
			Periodo   string `json:"periodo" binding:"max=128"`
			Local     string `json:"local" binding:"max=255"`
			Descricao string `json:"descricao" binding:"max=4000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		rec := &database.Experience{UserID: userID, Cargo: req.Cargo, Empresa: req.Empresa,
			Periodo: req.Periodo, Local: req.Local, Descricao: req.Descricao}
		return rec, h.store.CreateExperience(ctx, rec)

	case records.TableEducation:
		var req struct {
			Instituicao string `json:"instituicao" binding:"required,max=255"`
			Curso       string `json:"curso" binding:"required,max=255"`
			Grau        string `json:"grau" binding:"max=128"`
			Periodo     string `json:"periodo" binding:"max=128"`
			Descricao   string `json:"descricao" binding:"max=4000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		rec := &database.Education{UserID: userID, Instituicao: req.Instituicao, Curso: req.Curso,
			Grau: req.Grau, Periodo: req.Periodo, Descricao: req.Descricao}
		return rec, h.store.CreateEducation(ctx, rec)

	case records.TableProjects:
		var req struct {
			Titulo      string          `json:"titulo" binding:"required,max=255"`
			Descricao   string          `json:"descricao" binding:"max=4000"`
			Tecnologias json.RawMessage `json:"tecnologias"`
			Status      string          `json:"status" binding:"max=64"`
			Link        string          `json:"link" binding:"omitempty,url,max=512"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		// Accepts an array or a comma-delimited string; stored as an array.
		tecnologias, err := records.EncodeTechnologies(req.Tecnologias)
		if err != nil {
			BadRequest(c, "tecnologias must be a string or a string array")
			return nil, errBadRecordBody
		}
		rec := &database.Project{UserID: userID, Titulo: req.Titulo, Descricao: req.Descricao,
			Tecnologias: tecnologias, Status: req.Status, Link: req.Link}
		return rec, h.store.CreateProject(ctx, rec)

	case records.TableLanguages:
		var req struct {
			Idioma string `json:"idioma" binding:"required,max=128"`
			Nivel  string `json:"nivel" binding:"required,max=64"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		rec := &database.Language{UserID: userID, Idioma: req.Idioma, Nivel: req.Nivel}
		return rec, h.store.CreateLanguage(ctx, rec)

	case records.TableCertificates:
		var req struct {
			Titulo      string `json:"titulo" binding:"required,max=255"`
			Instituicao string `json:"instituicao" binding:"required,max=255"`
			DataEmissao string `json:"data_emissao" binding:"max=64"`
			Descricao   string `json:"descricao" binding:"max=4000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		rec := &database.Certificate{UserID: userID, Titulo: req.Titulo, Instituicao: req.Instituicao,
			DataEmissao: req.DataEmissao, Descricao: req.Descricao}
		return rec, h.store.CreateCertificate(ctx, rec)

	case records.TablePublications:
		var req struct {
			Titulo         string `json:"titulo" binding:"required,max=512"`
			Autores        string `json:"autores" binding:"required,max=512"`
			Revista        string `json:"revista" binding:"max=255"`
			DataPublicacao string `json:"data_publicacao" binding:"max=64"`
			DOI            string `json:"doi" binding:"max=255"`
			Resumo         string `json:"resumo" binding:"max=4000"`
			Link           string `json:"link" binding:"omitempty,url,max=512"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return nil, errBadRecordBody
		}
		rec := &database.Publication{UserID: userID, Titulo: req.Titulo, Autores: req.Autores,
			Revista: req.Revista, DataPublicacao: req.DataPublicacao, DOI: req.DOI,
			Resumo: req.Resumo, Link: req.Link}
		return rec, h.store.CreatePublication(ctx, rec)
	}

	return nil, records.ErrUnknownTable
}

// Delete removes one record owned by the caller.
func (h *RecordsHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	table := c.Param("table")
	if !records.KnownTable(table) {
		NotFound(c, "unknown collection")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid record id")
		return
	}

	err = h.store.DeleteRecord(c.Request.Context(), table, userID, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "record not found")
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("delete record failed",
			slog.String("table", table), slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.Status(http.StatusNoContent)
}
