// Package api exposes the ledger over HTTP: uploads, parsing,
// categorization and the analytics views.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/luca-finance/luca/internal/analytics"
	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/importer"
	"github.com/luca-finance/luca/internal/ingest"
	"github.com/luca-finance/luca/internal/model"
)

const maxUploadBytes = 32 << 20

// Server holds the handler dependencies.
type Server struct {
	svc         *ingest.Service
	registry    *importer.Registry
	categorizer *categorize.Categorizer
}

// NewRouter builds the HTTP handler.
func NewRouter(svc *ingest.Service, registry *importer.Registry, c *categorize.Categorizer, log zerolog.Logger) http.Handler {
	s := &Server{svc: svc, registry: registry, categorizer: c}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, "ok")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/uploads", s.upload)
		r.Post("/parse", s.parse)
		r.Post("/categorize", s.categorize)

		r.Get("/transactions", s.listTransactions)
		r.Get("/summary", s.summary)
		r.Get("/breakdown/monthly", s.monthly)
		r.Get("/breakdown/categories", s.categories)
		r.Get("/recurring", s.recurring)
		r.Get("/top-expenses", s.topExpenses)
	})
	return r
}

type uploadResult struct {
	File      string `json:"file"`
	Source    string `json:"source,omitempty"`
	Parsed    int    `json:"parsed"`
	UploadID  string `json:"upload_id,omitempty"`
	Attempted int    `json:"attempted"`
	Saved     int    `json:"saved"`
	LocalOnly bool   `json:"local_only"`
	Error     string `json:"error,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// upload accepts one or more "files" parts. Every file gets its own result;
// a failing file does not fail the request.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, r, http.StatusBadRequest, "no files uploaded")
		return
	}

	files := make([]importer.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("opening %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		files = append(files, importer.File{Name: fh.Filename, Size: fh.Size, Content: data})
	}

	outcomes := s.svc.ImportFiles(r.Context(), files)
	results := make([]uploadResult, 0, len(outcomes))
	for _, o := range outcomes {
		res := uploadResult{
			File:      o.Name,
			Source:    string(o.Source()),
			Parsed:    o.Parsed,
			UploadID:  o.Save.UploadID,
			Attempted: o.Save.Attempted,
			Saved:     o.Save.Saved,
			LocalOnly: o.Save.Local,
		}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		if o.Save.Err != nil {
			res.Warning = o.Save.Err.Error()
		}
		results = append(results, res)
	}
	writeJSON(w, r, http.StatusOK, results)
}

type parseRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// parse runs detection and parsing without touching the ledger.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeError(w, r, http.StatusBadRequest, "filename is required")
		return
	}

	res := s.registry.ParseFile(r.Context(), importer.File{Name: req.Filename, Content: []byte(req.Content)})
	switch {
	case errors.Is(res.Err, importer.ErrUnsupportedFileType):
		writeError(w, r, http.StatusUnsupportedMediaType, res.Err.Error())
		return
	case errors.Is(res.Err, importer.ErrNoTransactions):
		writeJSON(w, r, http.StatusOK, []model.Transaction{})
		return
	case res.Err != nil:
		writeError(w, r, http.StatusUnprocessableEntity, res.Err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, res.Transactions)
}

type categorizeRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type categorizeResponse struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
}

func (s *Server) categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c := s.categorizer.Categorize(strings.TrimSpace(req.Description), req.Amount)
	writeJSON(w, r, http.StatusOK, categorizeResponse{Category: c, Label: c.Label()})
}

// listTransactions filters the ledger by category, search, from, to and
// type, most recent first. limit caps the result.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind, err := analytics.ParseKind(q.Get("type"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	crit := analytics.Criteria{
		Category: model.Category(q.Get("category")),
		Search:   q.Get("search"),
		Kind:     kind,
	}
	if crit.Category != "" && !crit.Category.Valid() {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown category %q", crit.Category))
		return
	}
	if crit.From, err = parseDateParam(q.Get("from")); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid from: "+err.Error())
		return
	}
	if crit.To, err = parseDateParam(q.Get("to")); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid to: "+err.Error())
		return
	}

	filtered := analytics.Filter(s.svc.Transactions(), crit)
	limit := len(filtered)
	if l := q.Get("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	out := analytics.Recent(filtered, limit)
	if out == nil {
		out = []model.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, analytics.Summary(s.svc.Transactions()))
}

func (s *Server) monthly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, analytics.MonthlyBreakdown(s.svc.Transactions()))
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	kind := analytics.Expenses
	if t := r.URL.Query().Get("type"); t != "" {
		var err error
		if kind, err = analytics.ParseKind(t); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, r, http.StatusOK, analytics.CategoryBreakdown(s.svc.Transactions(), kind))
}

func (s *Server) recurring(w http.ResponseWriter, r *http.Request) {
	out := analytics.Recurring(s.svc.Transactions())
	if out == nil {
		out = []analytics.RecurringCharge{}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) topExpenses(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		if limit, err = strconv.Atoi(l); err != nil || limit <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	out := analytics.TopExpenses(s.svc.Transactions(), limit)
	if out == nil {
		out = []model.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func parseDateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}
