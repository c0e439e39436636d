package api

import (
	"net/http"

	"github.com/dgallion1/regdigest/internal/pdfpages"
)

type volumeView struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Pages   pdfpages.PageRange `json:"pages"`
	Topics  []string           `json:"topics"`
	Prompts int                `json:"prompts"`
}

func (s *Server) handleListVolumes(w http.ResponseWriter, r *http.Request) {
	vols := s.catalog.List()
	out := make([]volumeView, 0, len(vols))
	for _, v := range vols {
		prompts := v.Prompts()
		topics := make([]string, len(prompts))
		for i, p := range prompts {
			topics[i] = p.Topic
		}
		out = append(out, volumeView{
			ID:      v.ID,
			Title:   v.Title,
			Pages:   v.Pages,
			Topics:  topics,
			Prompts: len(prompts),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"volumes": out})
}
