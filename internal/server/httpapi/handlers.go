package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/netx"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/dmitrijs2005/registrar/internal/server/services"
)

const maxBodyBytes = 64 << 10

type registerRequest struct {
	User struct {
		First    string `json:"first"`
		Last     string `json:"last"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type userBasics struct {
	Username  string `json:"username"`
	First     string `json:"first"`
	Last      string `json:"last"`
	Thumbnail string `json:"thumbnail"`
}

type userSession struct {
	IP      string    `json:"ip"`
	Browser string    `json:"browser"`
	Time    time.Time `json:"time"`
	Country string    `json:"country"`
}

type profileResponse struct {
	UserBasics   userBasics    `json:"user_basics"`
	UserSessions []userSession `json:"user_sessions"`
}

func requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{Headers: r.Header, ClientIP: netx.ClientIP(r)}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// login takes an OAuth2 password-grant style form: username and password.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, common.ValidationError("body", "not a form"))
		return
	}

	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		h.writeError(w, r, common.ValidationError("credentials", "username and password are required"))
		return
	}

	token, err := h.svc.Login(r.Context(), username, password, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenTypeBearer})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, common.ValidationError("body", "malformed JSON"))
		return
	}

	nu := models.NewUser{
		Username: req.User.Username,
		First:    req.User.First,
		Last:     req.User.Last,
		Email:    req.User.Email,
		Password: req.User.Password,
	}

	token, err := h.svc.Register(r.Context(), nu, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenTypeBearer})
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	username, ok := UsernameFromContext(r.Context())
	if !ok {
		unauthorized(w, "Not authenticated")
		return
	}

	p, err := h.svc.GetProfile(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := profileResponse{
		UserBasics: userBasics{
			Username:  p.User.Username,
			First:     p.User.First,
			Last:      p.User.Last,
			Thumbnail: base64.StdEncoding.EncodeToString(p.Thumbnail),
		},
		UserSessions: make([]userSession, 0, len(p.Sessions)),
	}
	for _, s := range p.Sessions {
		resp.UserSessions = append(resp.UserSessions, userSession{
			IP:      s.IP,
			Browser: string(s.Browser),
			Time:    s.Time.UTC(),
			Country: s.Country,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
