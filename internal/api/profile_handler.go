package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"atlasacademico/internal/api/middleware"
	"atlasacademico/internal/database"
	"atlasacademico/internal/records"
	"atlasacademico/internal/tasks"
)

// ProfileHandler serves the authenticated profile plus the public directory
// endpoints used by the search page.
type ProfileHandler struct {
	store       *records.Store
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewProfileHandler builds the profile handler. asynqClient may be nil, which
// disables preview refreshes.
func NewProfileHandler(store *records.Store, asynqClient *asynq.Client, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, asynqClient: asynqClient, logger: logger}
}

type profileResponse struct {
	ID         uint     `json:"id"`
	Nome       string   `json:"nome"`
	TipoPerfil string   `json:"tipo_perfil"`
	Badges     []string `json:"badges"`
	AvatarURL  string   `json:"avatar_url,omitempty"`
	Bio        string   `json:"bio,omitempty"`
	CPF        string   `json:"cpf,omitempty"`
}

func toProfileResponse(p *database.Profile, includeCPF bool) profileResponse {
	resp := profileResponse{
		ID:         p.ID,
		Nome:       p.Nome,
		TipoPerfil: p.TipoPerfil,
		Badges:     records.DecodeBadges(p.Badges),
		AvatarURL:  p.AvatarURL,
		Bio:        p.Bio,
	}
	if includeCPF {
		resp.CPF = p.CPF
	}
	return resp
}

// GetOwnProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	profile, err := h.store.ProfileByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile, true))
}

type updateProfileRequest struct {
	Nome       string   `json:"nome" binding:"required,min=2,max=255"`
	CPF        string   `json:"cpf" binding:"max=32"`
	TipoPerfil string   `json:"tipo_perfil" binding:"required"`
	Badges     []string `json:"badges"`
	Bio        string   `json:"bio" binding:"max=4000"`
}

// UpdateOwnProfile replaces the editable profile fields.
func (h *ProfileHandler) UpdateOwnProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.TipoPerfil != database.ProfileTypeStudent && req.TipoPerfil != database.ProfileTypeProfessor {
		BadRequest(c, "tipo_perfil must be Estudante or Professor")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	profile, err := h.store.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		logger.Error("load profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	badges := req.Badges
	if badges == nil {
		badges = []string{}
	}
	encoded, err := json.Marshal(badges)
	if err != nil {
		BadRequest(c, "invalid badges")
		return
	}

	profile.Nome = strings.TrimSpace(req.Nome)
	profile.CPF = strings.TrimSpace(req.CPF)
	profile.TipoPerfil = req.TipoPerfil
	profile.Badges = datatypes.JSON(encoded)
	profile.Bio = req.Bio

	if err := h.store.UpdateProfile(ctx, profile); err != nil {
		logger.Error("update profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.enqueuePreviewRefresh(c, profile.ID)

	c.JSON(http.StatusOK, toProfileResponse(profile, true))
}

func (h *ProfileHandler) enqueuePreviewRefresh(c *gin.Context, profileID uint) {
	if h.asynqClient == nil {
		return
	}
	task, err := tasks.NewProfilePreviewTask(profileID)
	if err != nil {
		return
	}
	if _, err := h.asynqClient.EnqueueContext(c.Request.Context(), task); err != nil {
		middleware.LoggerFromContext(c).Warn("enqueue preview refresh failed", slog.Any("error", err))
	}
}

type publicProfileResponse struct {
	Profile      profileResponse        `json:"profile"`
	Experiences  []database.Experience  `json:"experiencias"`
	Education    []database.Education   `json:"formacao"`
	Projects     []database.Project     `json:"projetos"`
	Languages    []database.Language    `json:"idiomas"`
	Certificates []database.Certificate `json:"certificados"`
	Publications []database.Publication `json:"publicacoes"`
}

// GetPublicProfile returns a profile and its six collections, without the CPF.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "invalid profile id")
		return
	}

	ctx := c.Request.Context()
	profile, err := h.store.ProfileByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "profile not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load public profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	resp := publicProfileResponse{Profile: toProfileResponse(profile, false)}
	userID := profile.UserID

	// Collection reads share the cache with the export pipeline; a failure
	// here degrades that collection to empty rather than failing the page.
	logger := middleware.LoggerFromContext(c)
	loadCollection := func(name string, load func() error) {
		if err := load(); err != nil {
			logger.Warn("public profile collection degraded",
				slog.String("collection", name),
				slog.Any("error", err),
			)
		}
	}
	loadCollection("experiences", func() (err error) { resp.Experiences, err = h.store.ListExperiences(ctx, userID); return })
	loadCollection("education", func() (err error) { resp.Education, err = h.store.ListEducation(ctx, userID); return })
	loadCollection("projects", func() (err error) { resp.Projects, err = h.store.ListProjects(ctx, userID); return })
	loadCollection("languages", func() (err error) { resp.Languages, err = h.store.ListLanguages(ctx, userID); return })
	loadCollection("certificates", func() (err error) { resp.Certificates, err = h.store.ListCertificates(ctx, userID); return })
	loadCollection("publications", func() (err error) { resp.Publications, err = h.store.ListPublications(ctx, userID); return })

	c.JSON(http.StatusOK, resp)
}

// SearchProfiles matches the query against name, profile type and badges.
func (h *ProfileHandler) SearchProfiles(c *gin.Context) {
	profiles, err := h.store.SearchProfiles(c.Request.Context(), c.Query("q"))
	if err != nil {
		middleware.LoggerFromContext(c).Error("search failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	results := make([]profileResponse, len(profiles))
	for i := range profiles {
		results[i] = toProfileResponse(&profiles[i], false)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SuggestProfiles powers the search box typeahead.
func (h *ProfileHandler) SuggestProfiles(c *gin.Context) {
	profiles, err := h.store.SuggestProfiles(c.Request.Context(), c.Query("q"))
	if err != nil {
		middleware.LoggerFromContext(c).Error("suggest failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	type suggestion struct {
		ID         uint   `json:"id"`
		Nome       string `json:"nome"`
		TipoPerfil string `json:"tipo_perfil"`
	}
	results := make([]suggestion, len(profiles))
	for i, p := range profiles {
		results[i] = suggestion{ID: p.ID, Nome: p.Nome, TipoPerfil: p.TipoPerfil}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": results})
}
