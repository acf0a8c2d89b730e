package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Parse decodes an engine workflow document and validates it.
func Parse(raw []byte) (*Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, &GraphError{Kind: ErrMalformedGraph, Detail: err.Error()}
	}
	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func Serialize(wf *Workflow) ([]byte, error) {
	return json.Marshal(wf)
}

// Validate checks the structural invariants of a graph: at least one node,
// unique node ids and names, no connection endpoint missing from the node
// list, and per node kind parameter rules. It has no side effects.
func Validate(wf *Workflow) error {
	if wf == nil || len(wf.Nodes) == 0 {
		return &GraphError{Kind: ErrEmptyGraph, Workflow: nameOf(wf)}
	}
	ids := make(map[string]bool, len(wf.Nodes))
	names := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return &GraphError{Kind: ErrInvalidNode, Workflow: wf.Name, Node: n.Id, Detail: "node name can not be empty"}
		}
		if n.Id != "" {
			if ids[n.Id] {
				return &GraphError{Kind: ErrDuplicateNodeID, Workflow: wf.Name, Node: n.Id}
			}
			ids[n.Id] = true
		}
		if names[n.Name] {
			return &GraphError{Kind: ErrDuplicateNodeID, Workflow: wf.Name, Node: n.Name, Detail: "node names identify connection endpoints"}
		}
		names[n.Name] = true
	}

	sources := make([]string, 0, len(wf.Connections))
	for src := range wf.Connections {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		if !names[src] {
			return &GraphError{Kind: ErrDanglingConnection, Workflow: wf.Name, Node: src, Detail: "unknown source"}
		}
	}
	for _, e := range wf.Edges() {
		if !names[e.Target.Node] {
			return &GraphError{
				Kind:     ErrDanglingConnection,
				Workflow: wf.Name,
				Node:     e.Target.Node,
				Detail:   fmt.Sprintf("unknown target of %s[%s][%d]", e.Source, e.Kind, e.Port),
			}
		}
	}

	for _, n := range wf.Nodes {
		if err := n.Kind().Validate(); err != nil {
			return &GraphError{Kind: ErrInvalidNode, Workflow: wf.Name, Node: n.Name, Detail: err.Error()}
		}
	}
	return nil
}

func nameOf(wf *Workflow) string {
	if wf == nil {
		return ""
	}
	return wf.Name
}
