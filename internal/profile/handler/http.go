// Package handler exposes the onboarding services over HTTP (chi, JSON).
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auditdomain "linkerai/backend/internal/audit/domain"
	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/profile/domain"
	"linkerai/backend/internal/profile/service"
)

// maxBodyBytes bounds onboarding form bodies.
const maxBodyBytes = 64 << 10

// Response is the envelope of every onboarding response. Callers branch on Success.
type Response struct {
	Success      bool              `json:"success"`
	Role         string            `json:"role,omitempty"`
	Profile      any               `json:"profile,omitempty"`
	Data         any               `json:"data,omitempty"`
	Error        string            `json:"error,omitempty"`
	Code         string            `json:"code,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	StoredRole   string            `json:"storedRole,omitempty"`
	ExpectedRole string            `json:"expectedRole,omitempty"`
}

// Handler serves the onboarding and profile routes.
type Handler struct {
	resolver *service.Resolver
	writer   *service.Writer
	reader   *service.Reader
	logger   *zap.Logger
}

// New returns a Handler. logger may be nil.
func New(resolver *service.Resolver, writer *service.Writer, reader *service.Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{resolver: resolver, writer: writer, reader: reader, logger: logger}
}

// Routes registers the handler's routes on r. Authentication is applied by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/onboarding/{role}/resolve", h.ResolveRole)
	r.Put("/v1/onboarding/{role}", h.SaveOnboarding)
	r.Get("/v1/onboarding/status", h.Status)
	r.Get("/v1/profile", h.GetProfile)
	r.Get("/v1/profile/activity", h.Activity)
}

// ResolveRole handles POST /v1/onboarding/{role}/resolve.
func (h *Handler) ResolveRole(w http.ResponseWriter, r *http.Request) {
	identityID, _ := identity.IdentityID(r.Context())
	res, err := h.resolver.ResolveRole(r.Context(), identityID, roleParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Role: string(res.Role)})
}

// SaveOnboarding handles PUT /v1/onboarding/{role}.
func (h *Handler) SaveOnboarding(w http.ResponseWriter, r *http.Request) {
	identityID, _ := identity.IdentityID(r.Context())
	kind := roleParam(r)
	form, ok := service.NewForm(kind)
	if ok {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(form); err != nil {
			WriteJSON(w, http.StatusBadRequest, Response{Error: "invalid request body", Code: "bad_request"})
			return
		}
	}
	res, err := h.writer.SaveOnboarding(r.Context(), identityID, kind, form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, Response{Success: true, Role: string(kind), Profile: roleProfileJSON(res.Profile)})
}

// Status handles GET /v1/onboarding/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	identityID, _ := identity.IdentityID(r.Context())
	st, err := h.reader.Status(r.Context(), identityID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	role := ""
	if st.Role != nil {
		role = string(*st.Role)
	}
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Role:    role,
		Data:    statusJSON{HasBaseProfile: st.HasBaseProfile, Completed: st.Completed},
	})
}

// GetProfile handles GET /v1/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identityID, _ := identity.IdentityID(r.Context())
	p, err := h.reader.GetProfile(r.Context(), identityID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := profileJSON{baseJSON: newBaseJSON(p.Base)}
	if p.Role != nil {
		out.Details = roleProfileJSON(p.Role)
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Role: out.Role, Profile: out})
}

// Activity handles GET /v1/profile/activity?limit=&offset=.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	identityID, _ := identity.IdentityID(r.Context())
	limit, err1 := queryInt32(r, "limit")
	offset, err2 := queryInt32(r, "offset")
	if err := errors.Join(err1, err2); err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: "limit and offset must be integers", Code: "bad_request"})
		return
	}
	logs, err := h.reader.Activity(r.Context(), identityID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]activityJSON, 0, len(logs))
	for _, l := range logs {
		items = append(items, newActivityJSON(l))
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: items})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var e *service.Error
	if !errors.As(err, &e) {
		h.logger.Error("onboarding request failed", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, Response{Error: "internal error", Code: "internal"})
		return
	}
	resp := Response{
		Error:        e.Message,
		Code:         string(e.Kind),
		Details:      e.Details,
		StoredRole:   string(e.StoredRole),
		ExpectedRole: string(e.ExpectedRole),
	}
	if e.Kind == service.KindStoreUnavailable {
		h.logger.Warn("profile store unavailable", zap.Error(err))
		resp.Error = "service temporarily unavailable, try again later"
	}
	if e.Kind == service.KindStoreRejected {
		h.logger.Error("profile store rejected write", zap.Error(err))
	}
	if resp.Error == "" {
		resp.Error = string(e.Kind)
	}
	WriteJSON(w, StatusCode(e.Kind), resp)
}

// StatusCode maps a failure kind to its HTTP status.
func StatusCode(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindRoleMismatch:
		return http.StatusConflict
	case service.KindRoleForbidden:
		return http.StatusForbidden
	case service.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case service.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindStoreRejected:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func roleParam(r *http.Request) domain.Role {
	return domain.Role(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "role"))))
}

func queryInt32(r *http.Request, key string) (int32, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	return int32(n), err
}

// WriteJSON writes body as the JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusJSON struct {
	HasBaseProfile bool `json:"hasBaseProfile"`
	Completed      bool `json:"completed"`
}

type baseJSON struct {
	ID          string    `json:"id"`
	IdentityID  string    `json:"identityId"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Role        string    `json:"role,omitempty"`
	CompanyName string    `json:"companyName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newBaseJSON(p *domain.BaseProfile) baseJSON {
	out := baseJSON{
		ID:         p.ID,
		IdentityID: p.IdentityID,
		Email:      p.Email,
		FullName:   p.FullName,
		AvatarURL:  p.AvatarURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Role != nil {
		out.Role = string(*p.Role)
	}
	if p.CompanyName != nil {
		out.CompanyName = *p.CompanyName
	}
	return out
}

type profileJSON struct {
	baseJSON
	Details any `json:"details,omitempty"`
}

type clientJSON struct {
	CompanyName string    `json:"companyName"`
	CompanySize string    `json:"companySize"`
	Industry    string    `json:"industry"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	HiringNeeds []string  `json:"hiringNeeds"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type freelancerJSON struct {
	Title           string    `json:"title"`
	Bio             string    `json:"bio"`
	Skills          []string  `json:"skills"`
	HourlyRate      float64   `json:"hourlyRate"`
	ExperienceLevel string    `json:"experienceLevel"`
	Availability    string    `json:"availability"`
	PortfolioURL    string    `json:"portfolioUrl,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func roleProfileJSON(p *domain.RoleProfile) any {
	switch p.Kind() {
	case domain.RoleClient:
		c := p.Client
		return clientJSON{
			CompanyName: c.CompanyName,
			CompanySize: c.CompanySize,
			Industry:    c.Industry,
			Website:     c.Website,
			Description: c.Description,
			HiringNeeds: nonNil(c.HiringNeeds),
			UpdatedAt:   c.UpdatedAt,
		}
	case domain.RoleFreelancer:
		f := p.Freelancer
		return freelancerJSON{
			Title:           f.Title,
			Bio:             f.Bio,
			Skills:          nonNil(f.Skills),
			HourlyRate:      f.HourlyRate,
			ExperienceLevel: f.ExperienceLevel,
			Availability:    f.Availability,
			PortfolioURL:    f.PortfolioURL,
			UpdatedAt:       f.UpdatedAt,
		}
	}
	return nil
}

type activityJSON struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	IP        string          `json:"ip"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func newActivityJSON(l *auditdomain.AuditLog) activityJSON {
	return activityJSON{
		ID:        l.ID,
		Action:    l.Action,
		Resource:  l.Resource,
		IP:        l.IP,
		Metadata:  json.RawMessage(l.Metadata),
		CreatedAt: l.CreatedAt,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
