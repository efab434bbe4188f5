package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/workflow"
)

// SessionView is the JSON representation of a workflow session.
type SessionView struct {
	ID string `json:"id"`
	workflow.Snapshot
}

// metadataPatch carries the fields a client wants to change on the draft.
type metadataPatch struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Hashtags        *[]string `json:"hashtags"`
	Tags            *[]string `json:"tags"`
	ThumbnailPrompt *string   `json:"thumbnailPrompt"`
}

func (p metadataPatch) apply(m *metadata.Metadata) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Hashtags != nil {
		m.Hashtags = append([]string{}, (*p.Hashtags)...)
	}
	if p.Tags != nil {
		m.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.ThumbnailPrompt != nil {
		m.ThumbnailPrompt = *p.ThumbnailPrompt
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id, c := s.sessions.Create()
	slog.Debug("Created session", "id", id)
	writeJSON(w, http.StatusCreated, SessionView{ID: id, Snapshot: c.Snapshot()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if !c.Busy() {
		s.discard(stagedVideo(c.State()))
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateRequest(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.parseForm(w, r); err != nil {
		writeError(w, formErrorStatus(err), err.Error())
		return
	}
	defer cleanupForm(r)

	fh, videoURL := videoFromForm(r)
	var staged media.Reference
	if fh != nil {
		var err error
		staged, err = s.stage(r.Context(), fh)
		if err != nil {
			writeError(w, uploadErrorStatus(err), err.Error())
			return
		}
	}

	var replaced media.Reference
	err := c.Update(func(req *workflow.UploadRequest) {
		if v, ok := postedField(r, "category"); ok {
			req.Category = metadata.Category(v)
		}
		if v, ok := postedField(r, "language"); ok && v != "" {
			req.Language = v
		}
		if v, ok := postedField(r, "monetization"); ok {
			req.Monetization = v == "true"
		}
		if v, ok := postedField(r, "scheduleTime"); ok {
			req.ScheduleTime = v
		}
		switch {
		case staged.FileKey != "":
			replaced = req.Video
			req.Video = staged
		case videoURL != "":
			replaced = req.Video
			req.Video = media.Reference{URL: videoURL}
		}
	})
	if err != nil {
		s.discard(staged)
		s.writeActionError(w, id, c, err)
		return
	}
	s.discard(replaced)

	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) generateSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.Generate(r.Context()); err != nil {
		s.writeActionError(w, id, c, err)
		return
	}
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) editMetadata(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}

	var patch metadataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metadata: "+err.Error())
		return
	}
	if err := c.Edit(patch.apply); err != nil {
		s.writeActionError(w, id, c, err)
		return
	}
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) backSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.Back(); err != nil {
		s.writeActionError(w, id, c, err)
		return
	}
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) uploadSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.Upload(r.Context()); err != nil {
		s.writeActionError(w, id, c, err)
		return
	}
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.session(w, r)
	if !ok {
		return
	}
	if !c.Busy() {
		s.discard(stagedVideo(c.State()))
	}
	c.Reset()
	s.writeSession(w, http.StatusOK, id, c)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *workflow.Controller, bool) {
	id := mux.Vars(r)["id"]
	c, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return id, nil, false
	}
	return id, c, true
}

func (s *Server) writeSession(w http.ResponseWriter, status int, id string, c *workflow.Controller) {
	writeJSON(w, status, SessionView{ID: id, Snapshot: c.Snapshot()})
}

// writeActionError maps a refused or failed workflow action to a status and
// returns the session view so the client can render the error slot.
func (s *Server) writeActionError(w http.ResponseWriter, id string, c *workflow.Controller, err error) {
	view := SessionView{ID: id, Snapshot: c.Snapshot()}
	if view.Error == "" {
		view.Error = err.Error()
	}

	var subErr *workflow.SubmissionError
	switch {
	case errors.As(err, &subErr):
		writeJSON(w, resultStatus(subErr.Result), view)
	case errors.Is(err, media.ErrNoVideo):
		view.Error = msgNoVideo
		writeJSON(w, http.StatusBadRequest, view)
	case errors.Is(err, metadata.ErrIncomplete):
		writeJSON(w, http.StatusBadRequest, view)
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrWrongStage),
		errors.Is(err, workflow.ErrStale):
		writeJSON(w, http.StatusConflict, view)
	default:
		writeJSON(w, http.StatusInternalServerError, view)
	}
}

func postedField(r *http.Request, name string) (string, bool) {
	if _, ok := r.Form[name]; !ok {
		return "", false
	}
	return strings.TrimSpace(r.Form.Get(name)), true
}

// stagedVideo returns the video a session holds. Removing it again after a
// completed submission is a no-op for every store.
func stagedVideo(st workflow.State) media.Reference {
	switch st := st.(type) {
	case workflow.Input:
		return st.Request.Video
	case workflow.Preview:
		return st.Request.Video
	case workflow.Summary:
		return st.Request.Video
	default:
		return media.Reference{}
	}
}
