package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/services"
)

const (
	visitorCookie   = "bf_visitor"
	maxMessageBytes = 64 << 10
)

type FlowHandler struct {
	svc          *services.FlowService
	loader       *services.WidgetLoader
	logger       *zap.Logger
	secureCookie bool
	pageOrigins  map[string]struct{}
}

type FlowHandlerOptions struct {
	SecureCookie bool
	// PageOrigins are the origins the booking page itself is served from.
	// When set, frame messages are only relayed from requests whose Origin
	// header is one of them.
	PageOrigins []string
}

func NewFlowHandler(svc *services.FlowService, loader *services.WidgetLoader, logger *zap.Logger, opts FlowHandlerOptions) *FlowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(opts.PageOrigins))
	for _, o := range opts.PageOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = struct{}{}
		}
	}
	return &FlowHandler{
		svc:          svc,
		loader:       loader,
		logger:       logger,
		secureCookie: opts.SecureCookie,
		pageOrigins:  origins,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageRequest struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

type profileRequest struct {
	ProfileID string `json:"profileId"`
}

// LoadPage mounts the booking page for /book/{flow}, or bounces a provider
// redirect that landed on the wrong host.
func (h *FlowHandler) LoadPage(w http.ResponseWriter, r *http.Request) {
	flow, err := domain.ParseFlowType(chi.URLParam(r, "flow"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.svc.Load(r.Context(), services.LoadRequest{
		Flow:      flow,
		VisitorID: h.visitorID(w, r),
		URL:       requestURL(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if res.RedirectTo != "" {
		http.Redirect(w, r, res.RedirectTo, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, res.View)
}

func (h *FlowHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *FlowHandler) OpenModal(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w)(session.OpenModal(r.Context()))
}

func (h *FlowHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w)(session.CloseModal())
}

// RelayMessage hands a cross-origin message received by the page to the
// session's listener. The origin in the body is the one the browser reported
// to the page; the request itself must come from the page.
func (h *FlowHandler) RelayMessage(w http.ResponseWriter, r *http.Request) {
	if len(h.pageOrigins) > 0 {
		if _, ok := h.pageOrigins[r.Header.Get("Origin")]; !ok {
			h.logger.Warn("message relay from foreign page", zap.String("origin", r.Header.Get("Origin")))
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden origin"})
			return
		}
	}

	session, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	h.respond(w)(session.ReceiveMessage(req.Origin, req.Data))
}

func (h *FlowHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w)(session.Complete())
}

func (h *FlowHandler) Unmount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unmount(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FlowHandler) SaveTalentProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	if err := h.svc.SaveTalentProfile(r.Context(), h.visitorID(w, r), strings.TrimSpace(req.ProfileID)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmbedScript serves the initialized provider bundle. Until it has loaded the
// answer is 503 and a load is started.
func (h *FlowHandler) EmbedScript(w http.ResponseWriter, r *http.Request) {
	script, ok := h.loader.Script()
	if !ok {
		h.loader.EnsureLoaded(r.Context())
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "widget not loaded"})
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(script)
}

func (h *FlowHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"widgetLoaded": h.loader.IsLoaded(),
	})
}

func (h *FlowHandler) respond(w http.ResponseWriter) func(services.SessionView, error) {
	return func(v services.SessionView, err error) {
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// visitorID returns the visitor cookie, issuing a new one when absent.
func (h *FlowHandler) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *FlowHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUnknownFlow):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidProfile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// requestURL rebuilds the address the visitor's browser shows.
func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		u.Scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	u.Host = r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		u.Host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return &u
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
