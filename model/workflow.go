package model

import (
	"encoding/json"
	"sort"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/node"
)

// CONNECTION_MAIN is the output kind used by ordinary data edges.
const CONNECTION_MAIN string = "main"

// Workflow is a workflow graph in the engine's wire format. Keys the model
// does not know about (pinData, meta, versionId, ...) are kept so that a
// parsed workflow serializes back to an equal document.
type Workflow struct {
	Id          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Active      bool           `json:"active,omitempty"`
	Nodes       []Node         `json:"nodes"`
	Connections Connections    `json:"connections"`
	Settings    map[string]any `json:"settings,omitempty"`
	StaticData  map[string]any `json:"staticData,omitempty"`

	seen map[string]json.RawMessage
}

var workflowKeys = keySet("id", "name", "active", "nodes", "connections", "settings", "staticData")

type Node struct {
	Id          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	TypeVersion float64         `json:"typeVersion,omitempty"`
	Position    []float64       `json:"position,omitempty"`
	Parameters  node.Parameters `json:"parameters"`
	Credentials map[string]any  `json:"credentials,omitempty"`
	WebhookId   string          `json:"webhookId,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`

	seen map[string]json.RawMessage
}

var nodeKeys = keySet("id", "name", "type", "typeVersion", "position", "parameters", "credentials", "webhookId", "disabled")

// Connections groups edges by source node name, output kind and output
// port index: source -> kind -> port -> targets.
type Connections map[string]map[string][][]Target

type Target struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`

	seen map[string]json.RawMessage
}

var targetKeys = keySet("node", "type", "index")

// Edge is one flattened connection.
type Edge struct {
	Source string
	Kind   string
	Port   int
	Target Target
}

// Kind returns the typed view of the node parameters.
func (n Node) Kind() node.Kind {
	return node.Decode(n.Type, n.Parameters)
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	data, err := json.Marshal(plain(n))
	if err != nil {
		return nil, err
	}
	return mergeSeen(data, n.seen, nodeKeys)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	seen, err := splitSeen(data)
	if err != nil {
		return err
	}
	*n = Node(p)
	n.seen = seen
	return nil
}

func (t Target) MarshalJSON() ([]byte, error) {
	type plain Target
	data, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}
	return mergeSeen(data, t.seen, targetKeys)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	type plain Target
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	seen, err := splitSeen(data)
	if err != nil {
		return err
	}
	*t = Target(p)
	t.seen = seen
	return nil
}

func (wf Workflow) MarshalJSON() ([]byte, error) {
	type plain Workflow
	p := plain(wf)
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Connections == nil {
		p.Connections = Connections{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return mergeSeen(data, wf.seen, workflowKeys)
}

func (wf *Workflow) UnmarshalJSON(data []byte) error {
	type plain Workflow
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	seen, err := splitSeen(data)
	if err != nil {
		return err
	}
	*wf = Workflow(p)
	wf.seen = seen
	return nil
}

// Edges flattens the connection map in a deterministic order.
func (wf *Workflow) Edges() []Edge {
	sources := make([]string, 0, len(wf.Connections))
	for src := range wf.Connections {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	var edges []Edge
	for _, src := range sources {
		kinds := make([]string, 0, len(wf.Connections[src]))
		for kind := range wf.Connections[src] {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			for port, targets := range wf.Connections[src][kind] {
				for _, t := range targets {
					edges = append(edges, Edge{Source: src, Kind: kind, Port: port, Target: t})
				}
			}
		}
	}
	return edges
}

// Connect appends an edge from source's output port to target on the main
// output kind.
func (wf *Workflow) Connect(source string, port int, target string) {
	if wf.Connections == nil {
		wf.Connections = Connections{}
	}
	if wf.Connections[source] == nil {
		wf.Connections[source] = map[string][][]Target{}
	}
	ports := wf.Connections[source][CONNECTION_MAIN]
	for len(ports) <= port {
		ports = append(ports, []Target{})
	}
	ports[port] = append(ports[port], Target{Node: target, Type: CONNECTION_MAIN, Index: 0})
	wf.Connections[source][CONNECTION_MAIN] = ports
}

func (wf *Workflow) NodeByName(name string) (*Node, bool) {
	for i := range wf.Nodes {
		if wf.Nodes[i].Name == name {
			return &wf.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (wf *Workflow) Clone() (*Workflow, error) {
	data, err := json.Marshal(wf)
	if err != nil {
		return nil, err
	}
	var c Workflow
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
