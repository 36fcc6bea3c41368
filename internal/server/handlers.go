package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/colonyops/todod/internal/core/todo"
)

const (
	msgGreeting = "Hello World!"
	msgAdded    = "Todo Added"
	msgUpdated  = "Todo Updated"
	msgDeleted  = "Todo Deleted"
	msgNotFound = "Todo not found"
)

// addField is the only key /addTodo reads. It is matched exactly, not
// case-insensitively as encoding/json does for struct fields.
const addField = "todo"

// addRequest is the /addTodo body.
type addRequest struct {
	Todo string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, msgGreeting)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := checkJSONContentType(r.Header.Get("Content-Type")); err != nil {
		s.logger.Debug().Ctx(r.Context()).Err(err).Msg("rejecting add request")
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := decodeAdd(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.logger.Debug().Ctx(r.Context()).Err(err).Msg("rejecting add request")
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	item := s.store.Add(body.Todo)
	s.logger.Debug().Ctx(r.Context()).Uint32("id", item.ID).Msg("todo added")

	writeText(w, http.StatusOK, msgAdded)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeText(w, http.StatusNotFound, msgNotFound)
		return
	}

	item, err := s.store.Toggle(id)
	if err != nil {
		s.writeStoreError(w, r, id, err)
		return
	}
	s.logger.Debug().Ctx(r.Context()).Uint32("id", id).Bool("complete", item.Complete).Msg("todo toggled")

	writeText(w, http.StatusOK, msgUpdated)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeText(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := s.store.Remove(id); err != nil {
		s.writeStoreError(w, r, id, err)
		return
	}
	s.logger.Debug().Ctx(r.Context()).Uint32("id", id).Msg("todo removed")

	writeText(w, http.StatusOK, msgDeleted)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, id uint32, err error) {
	if errors.Is(err, todo.ErrNotFound) {
		s.logger.Debug().Ctx(r.Context()).Uint32("id", id).Msg("todo not found")
		writeText(w, http.StatusNotFound, msgNotFound)
		return
	}

	s.logger.Error().Ctx(r.Context()).Err(err).Uint32("id", id).Msg("store operation failed")
	writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// checkJSONContentType requires application/json or a +json media type.
func checkJSONContentType(header string) error {
	if header == "" {
		return errors.New("content type error: missing Content-Type, want application/json")
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return fmt.Errorf("content type error: %w", err)
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return fmt.Errorf("content type error: %q, want application/json", mediaType)
	}
	return nil
}

// decodeAdd accepts exactly one JSON object holding a string "todo" key.
// Unknown keys are ignored. A repeated "todo" key and invalid UTF-8 are
// rejected.
func decodeAdd(r io.Reader) (addRequest, error) {
	var body addRequest

	data, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return body, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return body, fmt.Errorf("read body: %w", err)
	}
	if !utf8.Valid(data) {
		return body, errors.New("invalid JSON body: invalid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return body, fmt.Errorf("invalid JSON body: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return body, errors.New("invalid JSON body: expected an object")
	}

	var raw json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return body, fmt.Errorf("invalid JSON body: %w", err)
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return body, fmt.Errorf("invalid JSON body: %w", err)
		}

		if key != addField {
			continue
		}
		if raw != nil {
			return body, errors.New("invalid JSON body: duplicate field `todo`")
		}
		raw = value
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return body, fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return body, errors.New("invalid JSON body: trailing data after object")
	}

	if raw == nil {
		return body, errors.New("invalid JSON body: missing field `todo`")
	}
	if bytes.Equal(raw, []byte("null")) {
		return body, errors.New("invalid JSON body: field `todo` must be a string")
	}
	if err := json.Unmarshal(raw, &body.Todo); err != nil {
		return body, fmt.Errorf("invalid JSON body: field `todo` must be a string: %w", err)
	}

	return body, nil
}

// pathID parses the {id} wildcard as an unsigned 32-bit integer.
func pathID(r *http.Request) (uint32, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, msg)
}

// writeJSON writes v without HTML escaping or a trailing newline.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
