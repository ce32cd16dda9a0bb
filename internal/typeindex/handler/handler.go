// Package handler exposes the type index registry over HTTP. Every route acts
// for the WebID carried by the authenticated request.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"typeindex/internal/audit"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	dErrors "typeindex/pkg/domain-errors"
	"typeindex/pkg/platform/httputil"
	"typeindex/pkg/requestcontext"
)

// Registry is the registry service as used by the handler.
type Registry interface {
	InitializeRegistry(ctx context.Context, profile models.Profile, containerURI string, opts ports.RequestOptions) (models.Profile, error)
	LoadRegistry(ctx context.Context, profile models.Profile, opts ports.RequestOptions) (models.Profile, error)
	RegisterType(ctx context.Context, profile models.Profile, req models.RegisterRequest, opts ports.RequestOptions) (models.Profile, error)
	UnregisterType(ctx context.Context, profile models.Profile, req models.UnregisterRequest, opts ports.RequestOptions) (models.Profile, error)
	RegistrationsForClass(ctx context.Context, profile models.Profile, class string) []models.Registration
}

// ProfileLoader resolves a WebID to its profile.
type ProfileLoader interface {
	Load(ctx context.Context, webID string, opts ports.RequestOptions) (models.Profile, error)
}

// AuditLog reads back the audit trail of a WebID.
type AuditLog interface {
	List(ctx context.Context, webID string, limit int) ([]audit.Event, error)
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type Handler struct {
	registry Registry
	profiles ProfileLoader
	auditLog AuditLog
	logger   *slog.Logger
}

type Option func(*Handler)

// WithAuditLog serves GET /registry/audit from log.
func WithAuditLog(log AuditLog) Option {
	return func(h *Handler) {
		h.auditLog = log
	}
}

func New(registry Registry, profiles ProfileLoader, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		profiles: profiles,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registry/init", h.HandleInitialize)
	r.Get("/registry", h.HandleGetRegistry)
	r.Get("/registry/audit", h.HandleListAudit)
	r.Get("/registrations", h.HandleListRegistrations)
	r.Post("/registrations", h.HandleRegister)
	r.Delete("/registrations", h.HandleUnregister)
}

// HandleInitialize handles POST /registry/init.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InitializeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	profile, ok := h.profile(w, r)
	if !ok {
		return
	}

	profile, err := h.registry.InitializeRegistry(ctx, profile, req.Container, ports.RequestOptions{})
	if err != nil {
		h.fail(ctx, w, "registry initialization failed", profile.WebID, err)
		return
	}
	h.logger.InfoContext(ctx, "registry initialized",
		"request_id", requestID,
		"webid", profile.WebID,
		"listed_uri", profile.Listed.URI,
		"unlisted_uri", profile.Unlisted.URI,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromProfile(profile))
}

// HandleGetRegistry handles GET /registry.
func (h *Handler) HandleGetRegistry(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadedRegistry(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleListAudit handles GET /registry/audit?limit=. It lists the caller's
// registry changes, most recent first.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	webID := requestcontext.WebID(ctx)
	if webID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if h.auditLog == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit log is not enabled"))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.auditLog.List(ctx, webID, limit)
	if err != nil {
		h.fail(ctx, w, "audit log read failed", webID, dErrors.Wrap(err, dErrors.CodeInternal, "could not read audit log"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(events))
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	return min(n, maxAuditLimit), nil
}

// HandleListRegistrations handles GET /registrations?class=.
func (h *Handler) HandleListRegistrations(w http.ResponseWriter, r *http.Request) {
	class := strings.TrimSpace(r.URL.Query().Get("class"))
	if class == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "class is required"))
		return
	}
	profile, ok := h.loadedRegistry(w, r)
	if !ok {
		return
	}
	regs := h.registry.RegistrationsForClass(r.Context(), profile, class)
	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(class, regs))
}

// HandleRegister handles POST /registrations.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	profile, ok := h.profile(w, r)
	if !ok {
		return
	}

	profile, err := h.registry.RegisterType(ctx, profile, req.ToDomain(), ports.RequestOptions{})
	if err != nil {
		h.fail(ctx, w, "type registration failed", profile.WebID, err)
		return
	}
	h.logger.InfoContext(ctx, "type registered",
		"request_id", requestID,
		"webid", profile.WebID,
		"class", req.Class,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	regs := h.registry.RegistrationsForClass(ctx, profile, req.Class)
	httputil.WriteJSON(w, http.StatusCreated, FromRegistrations(req.Class, regs))
}

// HandleUnregister handles DELETE /registrations?class=&location=&visibility=.
// It answers with the registrations of the class that remain.
func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := unregisterFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	profile, ok := h.loadedRegistry(w, r)
	if !ok {
		return
	}

	profile, err = h.registry.UnregisterType(ctx, profile, req, ports.RequestOptions{})
	if err != nil {
		h.fail(ctx, w, "type unregistration failed", profile.WebID, err)
		return
	}
	h.logger.InfoContext(ctx, "type unregistered",
		"request_id", requestID,
		"webid", profile.WebID,
		"class", req.Class,
		"location", req.Location,
	)
	regs := h.registry.RegistrationsForClass(ctx, profile, req.Class)
	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(req.Class, regs))
}

// profile resolves the authenticated WebID to its profile. It writes the
// error response and returns false on failure.
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) (models.Profile, bool) {
	ctx := r.Context()
	webID := requestcontext.WebID(ctx)
	if webID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return models.Profile{}, false
	}
	profile, err := h.profiles.Load(ctx, webID, ports.RequestOptions{})
	if err != nil {
		h.fail(ctx, w, "profile load failed", webID, err)
		return models.Profile{}, false
	}
	return profile, true
}

func (h *Handler) loadedRegistry(w http.ResponseWriter, r *http.Request) (models.Profile, bool) {
	profile, ok := h.profile(w, r)
	if !ok {
		return profile, false
	}
	profile, err := h.registry.LoadRegistry(r.Context(), profile, ports.RequestOptions{})
	if err != nil {
		h.fail(r.Context(), w, "registry load failed", profile.WebID, err)
		return profile, false
	}
	return profile, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg, webID string, err error) {
	log := h.logger.ErrorContext
	if code := dErrors.CodeOf(err); code == dErrors.CodeValidation || code == dErrors.CodePrecondition {
		log = h.logger.WarnContext
	}
	log(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"webid", webID,
		"error", err,
	)
	httputil.WriteError(w, err)
}
