package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/content"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/users"
)

const (
	msgBadCredentials = "Usuario o contraseña incorrectos"
	msgUnauthorized   = "Sesión expirada, ingrese nuevamente"
	msgInvalid        = "Datos inválidos"
)

type optionsResponse struct {
	Data []model.Option `json:"data"`
}

type errorResponse struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Server is the fake API.
type Server struct {
	opts   Options
	router *chi.Mux

	mu       sync.Mutex
	accounts map[string]Account
	tokens   map[string]string
	contents map[int64]content.Content
	nextID   int64
	userSeq  int64
}

// New builds a server with default options plus any overrides.
func New(fns ...OptionFn) *Server {
	opts := NewOptions(fns...)
	s := &Server{
		opts:     opts,
		accounts: make(map[string]Account),
		tokens:   make(map[string]string),
		contents: make(map[int64]content.Content),
		nextID:   1,
		userSeq:  1,
	}
	for _, acc := range opts.Accounts {
		s.accounts[strings.ToLower(acc.Email)] = acc
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLogger)
	r.Use(middleware.Recoverer)
	if opts.Latency > 0 {
		r.Use(s.delay)
	}

	r.Post("/api/login", s.login)
	r.Get("/api/verify", s.verify)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/genres", s.searchHandler(opts.Genres))
		r.Get("/api/maturity-ratings", s.searchHandler(opts.Ratings))
		r.Route("/api/contents", func(r chi.Router) {
			r.Get("/", s.listContents)
			r.Post("/", s.createContent)
			r.Get("/{id}", s.getContent)
			r.Put("/{id}", s.updateContent)
		})
		r.Post("/api/users", s.createUser)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Contents returns the stored entries.
func (s *Server) Contents() []content.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]content.Content, 0, len(s.contents))
	for id := int64(1); id < s.nextID; id++ {
		if c, ok := s.contents[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) accessLogger(next http.Handler) http.Handler {
	logger := s.opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			logger.Debug("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", r.Header.Get("X-Request-ID"),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(s.opts.Latency):
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.identity(r); !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: msgUnauthorized})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) identity(r *http.Request) (Account, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return Account{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	if !ok {
		return Account{}, false
	}
	acc, ok := s.accounts[email]
	return acc, ok
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "JSON inválido"})
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(body.Email) == "" {
		fields["email"] = []string{"El email es obligatorio"}
	}
	if body.Password == "" {
		fields["password"] = []string{"La contraseña es obligatoria"}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: msgInvalid, Fields: fields})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	s.mu.Lock()
	acc, ok := s.accounts[email]
	if !ok || acc.Password != body.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: msgBadCredentials})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = email
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, auth.Identity{Token: token, Nombre: acc.Nombre, Apellido: acc.Apellido, Email: acc.Email})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.identity(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: msgUnauthorized})
		return
	}
	writeJSON(w, http.StatusOK, auth.Identity{Nombre: acc.Nombre, Apellido: acc.Apellido, Email: acc.Email})
}

func (s *Server) searchHandler(catalog []model.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get(s.opts.SearchParam)
		limit := parseInt(r.URL.Query().Get(s.opts.LimitParam))
		results := Search(catalog, query, limit, s.opts)
		if results == nil {
			results = []model.Option{}
		}
		writeJSON(w, http.StatusOK, optionsResponse{Data: results})
	}
}

func (s *Server) listContents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Contents())
}

func (s *Server) getContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	c, found := s.contents[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Contenido inexistente"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createContent(w http.ResponseWriter, r *http.Request) {
	s.saveContent(w, r, 0)
}

func (s *Server) updateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	s.saveContent(w, r, id)
}

func (s *Server) saveContent(w http.ResponseWriter, r *http.Request, id int64) {
	var p content.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "JSON inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != 0 {
		if _, ok := s.contents[id]; !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "Contenido inexistente"})
			return
		}
	}

	fields := map[string][]string{}
	for otherID, other := range s.contents {
		if otherID != id && strings.EqualFold(other.Title, strings.TrimSpace(p.Title)) {
			fields["title"] = []string{"Ya existe un contenido con ese título"}
		}
	}
	genres := make([]model.Option, 0, len(p.Genres))
	for i, gid := range p.Genres {
		opt, ok := lookup(s.opts.Genres, gid)
		if !ok {
			fields["genres["+strconv.Itoa(i)+"]"] = []string{"Género inexistente"}
			continue
		}
		genres = append(genres, opt)
	}
	rating, ok := lookup(s.opts.Ratings, p.MaturityRatingID)
	if !ok {
		fields["maturity_rating_id"] = []string{"Calificación inexistente"}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: msgInvalid, Fields: fields})
		return
	}

	status := http.StatusOK
	if id == 0 {
		id = s.nextID
		s.nextID++
		status = http.StatusCreated
	}
	c := content.Content{
		ID:               id,
		Title:            p.Title,
		Description:      p.Description,
		Year:             p.Year,
		Duration:         p.Duration,
		Director:         p.Director,
		Writer:           p.Writer,
		Cast:             p.Cast,
		URLImage:         p.URLImage,
		VerticalURLImage: p.VerticalURLImage,
		URLVideo:         p.URLVideo,
		Genres:           genres,
		MaturityRating:   &rating,
	}
	s.contents[id] = c
	writeJSON(w, status, c)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var p users.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "JSON inválido"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: msgInvalid,
			Fields:  map[string][]string{"email": {"El email ya está registrado"}},
		})
		return
	}
	s.accounts[email] = Account{Email: p.Email, Password: p.Password, Nombre: p.Nombre, Apellido: p.Apellido}
	id := s.userSeq
	s.userSeq++
	writeJSON(w, http.StatusCreated, users.User{ID: id, Nombre: p.Nombre, Apellido: p.Apellido, Email: p.Email})
}

func contentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Identificador inválido"})
		return 0, false
	}
	return id, true
}

func lookup(catalog []model.Option, id int64) (model.Option, bool) {
	for _, opt := range catalog {
		if opt.ID == id {
			return opt, true
		}
	}
	return model.Option{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
