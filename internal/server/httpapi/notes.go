package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/go-chi/chi/v5"
)

// NoteFiles gives scoped access to note files.
type NoteFiles interface {
	With(name string, fn func(f *os.File) error) error
}

// NoteArchiver snapshots a note to object storage.
type NoteArchiver interface {
	Archive(ctx context.Context, name string) (string, error)
}

// WithNotes mounts the note routes.
func (s *Server) WithNotes(files NoteFiles, archiver NoteArchiver) *Server {
	s.notes = files
	s.archiver = archiver
	return s
}

func (s *Server) handleReadNote(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := s.notes.With(name, func(f *os.File) error {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, err = io.Copy(w, io.NewSectionReader(f, 0, info.Size()))
		return err
	})
	if err != nil {
		s.noteError(w, r, err)
	}
}

func (s *Server) handleArchiveNote(w http.ResponseWriter, r *http.Request) {
	if s.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "Archiving is not configured")
		return
	}

	key, err := s.archiver.Archive(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.noteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (s *Server) noteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidNoteName):
		writeError(w, http.StatusBadRequest, "Invalid note name")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "Note not found")
	default:
		s.internalError(w, r, err)
	}
}
