package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/PSCyberGeek/forge-ai/internal/auth"
	"github.com/PSCyberGeek/forge-ai/internal/provider"
	"github.com/PSCyberGeek/forge-ai/internal/relay"
	"github.com/PSCyberGeek/forge-ai/internal/sandbox"
	"github.com/PSCyberGeek/forge-ai/internal/store"
	"github.com/PSCyberGeek/forge-ai/web"
)

const recentHistoryLimit = 20

// Handler carries every collaborator a request may need. Constructed once at
// startup and injected; no package-level mutable state.
type Handler struct {
	gate    *auth.Gate
	relay   *relay.Relay
	sandbox sandbox.Sandbox
	store   store.Store
	tmpl    *template.Template
	log     *slog.Logger
}

func NewHandler(gate *auth.Gate, rl *relay.Relay, sb sandbox.Sandbox, st store.Store, log *slog.Logger) *Handler {
	return &Handler{
		gate:    gate,
		relay:   rl,
		sandbox: sb,
		store:   st,
		tmpl:    web.Templates(),
		log:     log,
	}
}

// ── Pages ────────────────────────────────────────────────────────────────────

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.page(w, "index.html", nil)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, "")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, "invalid form submission")
		return
	}
	password := r.PostFormValue("password")
	otpCode := r.PostFormValue("mfa_code")

	if err := h.gate.Login(w, r, password, otpCode); err != nil {
		h.log.Warn("login rejected", "reason", err)
		h.renderLogin(w, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// MFASetup exposes the shared secret and a scannable provisioning code.
// Requires a fully authenticated session (the guard is applied in routes.go).
func (h *Handler) MFASetup(w http.ResponseWriter, r *http.Request) {
	if h.gate.Secret() == "" {
		http.Error(w, "one-time codes are not configured", http.StatusNotFound)
		return
	}
	provURL := h.gate.ProvisioningURL()
	png, err := qrcode.Encode(provURL, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}
	h.page(w, "mfa_setup.html", map[string]any{
		"Secret":          h.gate.Secret(),
		"ProvisioningURL": provURL,
		"QRBase64":        base64.StdEncoding.EncodeToString(png),
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, errMsg string) {
	h.page(w, "login.html", map[string]any{
		"Error":       errMsg,
		"TOTPEnabled": h.gate.TOTPEnabled(),
	})
}

func (h *Handler) page(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render page", "template", name, "error", err)
	}
}

// ── API ──────────────────────────────────────────────────────────────────────

type chatRequest struct {
	Message  string             `json:"message"`
	Language string             `json:"language"`
	History  []provider.Message `json:"history"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.relay.Send(r.Context(), req.Message, req.Language, req.History)
	if err != nil {
		h.relayError(w, err)
		return
	}
	h.json(w, http.StatusOK, map[string]any{
		"response": reply,
		"success":  true,
	})
}

type executeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sandbox.Run(r.Context(), req.Language, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, sandbox.ErrEmptyCode),
			errors.Is(err, sandbox.ErrUnsupportedLanguage),
			errors.Is(err, sandbox.ErrTimeout):
			h.error(w, http.StatusBadRequest, err.Error())
		default:
			h.error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.json(w, http.StatusOK, map[string]any{
		"stdout":     res.Stdout,
		"stderr":     res.Stderr,
		"returncode": res.ExitCode,
		"success":    res.Success,
	})
}

// Health always returns 200 regardless of session state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"api_configured": h.relay.Configured(),
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.Recent(recentHistoryLimit)
	if err != nil {
		h.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []provider.Message{}
	}
	h.json(w, http.StatusOK, map[string]any{"history": msgs})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(); err != nil {
		h.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.json(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.store.List()
	if err != nil {
		h.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snippets == nil {
		snippets = []store.Snippet{}
	}
	h.json(w, http.StatusOK, map[string]any{"snippets": snippets})
}

type saveSnippetRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *Handler) SaveSnippet(w http.ResponseWriter, r *http.Request) {
	var req saveSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Code == "" {
		h.error(w, http.StatusBadRequest, "name and code are required")
		return
	}
	if req.Language == "" {
		req.Language = sandbox.LangPython
	}

	sn, err := h.store.Add(req.Name, req.Code, req.Language)
	if err != nil {
		h.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.json(w, http.StatusOK, map[string]any{
		"success": true,
		"snippet": sn,
	})
}

func (h *Handler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.error(w, http.StatusBadRequest, "invalid snippet id")
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.json(w, http.StatusOK, map[string]any{"success": true})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (h *Handler) relayError(w http.ResponseWriter, err error) {
	var upstream *relay.UpstreamError
	switch {
	case errors.Is(err, relay.ErrEmptyMessage):
		h.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, relay.ErrNotConfigured):
		h.error(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &upstream):
		h.error(w, http.StatusInternalServerError, upstream.Error())
	default:
		h.error(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) error(w http.ResponseWriter, status int, message string) {
	h.json(w, status, map[string]any{
		"error":   message,
		"success": false,
	})
}
