package adapthttp

import (
	"net/http"

	"brandsite/internal/app"
)

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.allow(w, r, s.limits.Contact, "submissions") {
		return
	}

	var in app.ContactInput
	if err := parseJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.contacts.Submit(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		items, err := s.contacts.List(ctx)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPatch:
		var body struct {
			ID     string `json:"id"`
			IsRead bool   `json:"is_read"`
		}
		if err := parseJSON(r, &body); err != nil {
			s.fail(w, r, err)
			return
		}
		c, err := s.contacts.MarkRead(ctx, body.ID, body.IsRead)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodDelete:
		if err := s.contacts.Delete(ctx, r.URL.Query().Get("id")); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
