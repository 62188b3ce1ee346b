package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sharednotes/internal/auth"
	"sharednotes/internal/events"
	"sharednotes/internal/notes"
	"sharednotes/internal/pagination"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	store   *notes.Store
	sharing *notes.SharingManager
	tags    *notes.TagRegistry
	hub     *events.Hub
	logger  *slog.Logger
}

func NewHandler(store *notes.Store, sharing *notes.SharingManager, tags *notes.TagRegistry, hub *events.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		sharing: sharing,
		tags:    tags,
		hub:     hub,
		logger:  logger,
	}
}

// respondError maps domain failures onto HTTP statuses. Forbidden collapses
// into the not-found body so an unauthorized caller cannot distinguish a
// note that exists from one that does not; the log line keeps the real cause.
func (h *Handler) respondError(ctx *gin.Context, err error) {
	var ve *notes.ValidationError
	switch {
	case errors.As(err, &ve):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": ve.Error(), "field": ve.Field})
	case errors.Is(err, notes.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, notes.ErrForbidden):
		h.logger.Warn("request forbidden", "path", ctx.FullPath())
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
	case errors.Is(err, notes.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
	case errors.Is(err, notes.ErrConflict):
		ctx.JSON(http.StatusConflict, gin.H{"message": "Conflict"})
	default:
		h.logger.Error("request failed", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func parseNoteID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid note id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseTagIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseTagFilter reads the comma-separated tags query parameter.
func parseTagFilter(ctx *gin.Context) ([]uuid.UUID, bool) {
	raw := strings.TrimSpace(ctx.Query("tags"))
	if raw == "" {
		return nil, true
	}
	ids, err := parseTagIDs(strings.Split(raw, ","))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid tag id in filter"})
		return nil, false
	}
	return ids, true
}

func parsePage(ctx *gin.Context) (int, bool) {
	raw := ctx.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page number"})
		return 0, false
	}
	return page, true
}

func parseView(ctx *gin.Context) (notes.View, bool) {
	view, err := notes.ParseView(ctx.Query("view"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid view"})
		return notes.ViewAll, false
	}
	return view, true
}

type createNoteRequest struct {
	Title       string   `json:"title" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	TagIDs      []string `json:"tags"`
	ShareEmails []string `json:"share_emails"`
}

func (h *Handler) CreateNote(ctx *gin.Context) {
	var req createNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	tagIDs, err := parseTagIDs(req.TagIDs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid tag id"})
		return
	}

	requester := auth.CurrentIdentity(ctx)
	note, err := h.store.Create(ctx.Request.Context(), requester, req.Title, req.Content, tagIDs, req.ShareEmails)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.hub.Publish(events.Event{Type: events.NoteCreated, NoteID: note.ID.String(), Actor: requester.ID})
	for _, email := range req.ShareEmails {
		h.hub.Publish(events.Event{
			Type:           events.NoteShared,
			NoteID:         note.ID.String(),
			Actor:          requester.ID,
			RecipientEmail: strings.ToLower(strings.TrimSpace(email)),
		})
	}
	ctx.JSON(http.StatusCreated, note)
}

func (h *Handler) GetNote(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	note, err := h.store.Get(ctx.Request.Context(), id, auth.CurrentIdentity(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, note)
}

type updateNoteRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	TagIDs  []string `json:"tags"`
}

func (h *Handler) UpdateNote(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	var req updateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	tagIDs, err := parseTagIDs(req.TagIDs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid tag id"})
		return
	}

	requester := auth.CurrentIdentity(ctx)
	note, err := h.store.Update(ctx.Request.Context(), id, requester, req.Title, req.Content, tagIDs)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.hub.Publish(events.Event{Type: events.NoteUpdated, NoteID: note.ID.String(), Actor: requester.ID})
	ctx.JSON(http.StatusOK, note)
}

func (h *Handler) DeleteNote(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	requester := auth.CurrentIdentity(ctx)
	if err := h.store.SoftDelete(ctx.Request.Context(), id, requester); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.hub.Publish(events.Event{Type: events.NoteDeleted, NoteID: id.String(), Actor: requester.ID})
	ctx.Status(http.StatusNoContent)
}

type listResponse struct {
	Notes      []notes.Note    `json:"notes"`
	Pagination pagination.Meta `json:"pagination"`
}

func (h *Handler) ListNotes(ctx *gin.Context) {
	view, ok := parseView(ctx)
	if !ok {
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		return
	}
	tagFilter, ok := parseTagFilter(ctx)
	if !ok {
		return
	}

	result, meta, err := h.store.List(ctx.Request.Context(), auth.CurrentIdentity(ctx), view, page, tagFilter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, listResponse{Notes: result, Pagination: meta})
}

func (h *Handler) SearchNotes(ctx *gin.Context) {
	view, ok := parseView(ctx)
	if !ok {
		return
	}
	page, ok := parsePage(ctx)
	if !ok {
		return
	}
	tagFilter, ok := parseTagFilter(ctx)
	if !ok {
		return
	}

	result, meta, err := h.store.Search(ctx.Request.Context(), auth.CurrentIdentity(ctx), ctx.Query("q"), tagFilter, view, page)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, listResponse{Notes: result, Pagination: meta})
}

type shareRequest struct {
	Emails []string `json:"emails" binding:"required"`
}

func (h *Handler) ShareNote(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	var req shareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	requester := auth.CurrentIdentity(ctx)
	grants, err := h.sharing.Share(ctx.Request.Context(), id, requester, req.Emails)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	for _, grant := range grants {
		h.hub.Publish(events.Event{
			Type:           events.NoteShared,
			NoteID:         id.String(),
			Actor:          requester.ID,
			RecipientEmail: grant.RecipientEmail,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"shares": grants})
}

func (h *Handler) ListShares(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	shares, err := h.sharing.ListShares(ctx.Request.Context(), id, auth.CurrentIdentity(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"shares": shares})
}

func (h *Handler) RevokeShare(ctx *gin.Context) {
	id, ok := parseNoteID(ctx)
	if !ok {
		return
	}
	email := ctx.Query("email")
	if strings.TrimSpace(email) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing email"})
		return
	}

	requester := auth.CurrentIdentity(ctx)
	if err := h.sharing.Revoke(ctx.Request.Context(), id, requester, email); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.hub.Publish(events.Event{
		Type:           events.NoteUnshared,
		NoteID:         id.String(),
		Actor:          requester.ID,
		RecipientEmail: strings.ToLower(strings.TrimSpace(email)),
	})
	ctx.Status(http.StatusNoContent)
}

func (h *Handler) ListTags(ctx *gin.Context) {
	tags, err := h.tags.List(ctx.Request.Context())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Events upgrades the connection and streams the note event feed.
func (h *Handler) Events(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.hub.AddClient(conn)
}
