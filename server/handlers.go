package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"slices"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/schema"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const maxInputBody = 64 << 10

// ── Page ─────────────────────────────────────────────────────────────────────

type choice struct {
	Key      string
	Label    string
	Selected bool
	Color    string
}

type pageData struct {
	Title      string
	Source     string
	Attributes []choice
	Species    []choice
	BinsA      int
	BinsB      int
	MinBinsB   int
	MaxBinsB   int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var sel dashboard.Selection
	sess.with(func(d *dashboard.Dashboard) { sel = d.Selection() })

	sch := schema.Penguins()
	data := pageData{
		Title:    "Palmer Penguins",
		Source:   s.ds.Source(),
		BinsA:    sel.BinsA,
		BinsB:    sel.BinsB,
		MinBinsB: dashboard.MinBinsB,
		MaxBinsB: dashboard.MaxBinsB,
	}
	for _, key := range sch.SelectableMeasures() {
		data.Attributes = append(data.Attributes, choice{
			Key:      key,
			Label:    engine.LabelForDimension(key),
			Selected: key == sel.Attribute,
		})
	}
	species, _ := sch.Dimension(schema.Species)
	for _, name := range species.SampleValues {
		data.Species = append(data.Species, choice{
			Key:      name,
			Label:    name,
			Selected: slices.Contains(sel.Species, name),
			Color:    dashboard.SpeciesPalette[name],
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("⚠️ Pengdash: render page: %v", err)
	}
}

// ── API ──────────────────────────────────────────────────────────────────────

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var snap dashboard.Snapshot
	sess.with(func(d *dashboard.Dashboard) { snap = d.Snapshot() })
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var change dashboard.Change
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var up dashboard.Update
	sess.with(func(d *dashboard.Dashboard) { up, err = d.Apply(r.Context(), change) })

	switch {
	case errors.Is(err, dashboard.ErrUnknownControl), errors.Is(err, dashboard.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "recomputation cancelled")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, up)
	}
}

type controlSchema struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Choices []string `json:"choices,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Default any      `json:"default"`
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	sch := schema.Penguins()
	species, _ := sch.Dimension(schema.Species)
	controls := []controlSchema{
		{ID: dashboard.ControlAttribute, Label: "Select an Attribute", Kind: "select",
			Choices: sch.SelectableMeasures(), Default: s.defaults.Attribute},
		{ID: dashboard.ControlBinsA, Label: "Number of Interactive Bins", Kind: "numeric",
			Default: s.defaults.BinsA},
		{ID: dashboard.ControlBinsB, Label: "Number of Static Bins", Kind: "slider",
			Min: dashboard.MinBinsB, Max: dashboard.MaxBinsB, Default: s.defaults.BinsB},
		{ID: dashboard.ControlSpecies, Label: "Select Species", Kind: "checkbox_group",
			Choices: species.SampleValues, Default: s.defaults.Species},
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controls": controls,
		"palette":  dashboard.SpeciesPalette,
		"dataset":  sch,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"records":  s.ds.Len(),
		"source":   s.ds.Source(),
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
