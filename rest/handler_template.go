package rest

import (
	"net/http"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

type templateSummary struct {
	Name  model.TemplateName `json:"name"`
	Nodes int                `json:"nodes"`
	Edges int                `json:"edges"`
}

func (s *Server) HandleGetTemplates(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	out := make([]templateSummary, 0, len(all))
	for _, t := range all {
		out = append(out, templateSummary{Name: t.Name, Nodes: len(t.Workflow.Nodes), Edges: len(t.Workflow.Edges())})
	}
	respondOK(w, map[string]any{"templates": out})
}
