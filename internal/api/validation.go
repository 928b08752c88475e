package api

import (
	"net/http"
	"sort"
	"strings"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок запроса
const (
	ErrRequired    = "required"
	ErrEnumInvalid = "enum_invalid"
	ErrTooLarge    = "too_large"
	ErrNotFound    = "not_found"
)

// лимиты POST /api/diagram
const (
	maxSources     = 500
	maxSourceBytes = 1 << 20
	maxTitleLen    = 200
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []FieldError) int {
	// 413, если упёрлись в лимиты
	for _, e := range errs {
		if e.Code == ErrTooLarge {
			return http.StatusRequestEntityTooLarge
		}
	}
	return http.StatusBadRequest
}

// diagramReq тело POST /api/diagram.
type diagramReq struct {
	Sources         map[string]string `json:"sources"`
	ResolveEmbedded *bool             `json:"resolveEmbedded"`
	Label           string            `json:"label"`
	Only            []string          `json:"only"`
}

// validateDiagramReq проверяет запрос и возвращает разобранную подпись.
func validateDiagramReq(req *diagramReq) (mermaid.Label, []FieldError) {
	var errs []FieldError

	// 1) sources
	switch {
	case len(req.Sources) == 0:
		errs = append(errs, ferr(ErrRequired, "sources", "Field 'sources' is required"))
	case len(req.Sources) > maxSources:
		errs = append(errs, ferr(ErrTooLarge, "sources", "Too many sources"))
	}
	names := make([]string, 0, len(req.Sources))
	for name := range req.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field := "sources." + name
		switch {
		case strings.TrimSpace(name) == "":
			errs = append(errs, ferr(ErrRequired, "sources", "Source name must not be empty"))
		case len(req.Sources[name]) > maxSourceBytes:
			errs = append(errs, ferr(ErrTooLarge, field, "Source '"+name+"' is too large"))
		}
	}

	// 2) label
	label, ok := mermaid.ParseLabel(req.Label)
	if !ok {
		errs = append(errs, ferr(ErrEnumInvalid, "label", "Invalid value for 'label' (allowed: none|field|kind)"))
	}
	return label, errs
}

// snapshotReq тело POST /api/snapshots.
type snapshotReq struct {
	Title string   `json:"title"`
	Label string   `json:"label"`
	Only  []string `json:"only"`
}

func validateSnapshotReq(req *snapshotReq) (mermaid.Label, []FieldError) {
	var errs []FieldError
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		errs = append(errs, ferr(ErrRequired, "title", "Field 'title' is required"))
	} else if len(req.Title) > maxTitleLen {
		errs = append(errs, ferr(ErrTooLarge, "title", "Field 'title' is too long"))
	}
	label, ok := mermaid.ParseLabel(req.Label)
	if !ok {
		errs = append(errs, ferr(ErrEnumInvalid, "label", "Invalid value for 'label' (allowed: none|field|kind)"))
	}
	return label, errs
}

// entityNames имена сущностей для ответа.
func entityNames(entities []*jpa.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Name)
	}
	return out
}

// checkOnly: каждое имя из only должно совпасть с ID одной из сущностей.
func checkOnly(entities []*jpa.Entity, only []string) []FieldError {
	known := map[string]bool{}
	for _, e := range entities {
		known[e.ID()] = true
	}
	var errs []FieldError
	for _, name := range only {
		if !known[strings.ToUpper(strings.TrimSpace(name))] {
			errs = append(errs, ferr(ErrNotFound, "only", "Entity '"+name+"' not found"))
		}
	}
	return errs
}
