package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brightsun/solarsite/internal/content"
)

type postSummary struct {
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	PublishedAt string       `json:"published_at"`
	Tags        []string     `json:"tags"`
	Meta        content.Meta `json:"meta"`
}

// BlogPosts lists blog posts, newest first, without their bodies
func (h *Handler) BlogPosts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	posts := h.content.Posts()
	out := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, postSummary{
			Slug:        p.Slug,
			Title:       p.Title,
			Summary:     p.Summary,
			PublishedAt: p.PublishedAt.Format("2006-01-02"),
			Tags:        p.Tags,
			Meta:        p.Meta,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": out})
}

// BlogPost returns one post with its rendered HTML
func (h *Handler) BlogPost(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	post, ok := h.content.Post(mux.Vars(r)["slug"])
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Cities lists the city landing pages
func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cities": h.content.Cities()})
}

// City returns one city landing page
func (h *Handler) City(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	city, ok := h.content.City(mux.Vars(r)["slug"])
	if !ok {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, city)
}
