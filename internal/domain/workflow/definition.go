// Package workflow models the admin-authored approval graph of a service.
// Definitions arrive as JSON (nodes + edges); parsing produces a typed graph
// and rejects malformed shapes so traversal never has to re-check them.
package workflow

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/roles"
	apperrors "github.com/alhafibarefoot/HelpDesk-sub002/pkg/errors"
)

// NodeKind discriminates the node union
type NodeKind string

const (
	KindStart    NodeKind = "start"
	KindApproval NodeKind = "approval"
	KindAction   NodeKind = "action"
	KindEnd      NodeKind = "end"
)

// Node is one step of a workflow graph. Each kind carries only the fields
// valid for that kind.
type Node interface {
	ID() string
	Kind() NodeKind
	Label() string
}

// StartNode is the single entry point of a workflow
type StartNode struct {
	NodeID    string
	NodeLabel string
}

func (n StartNode) ID() string     { return n.NodeID }
func (n StartNode) Kind() NodeKind { return KindStart }
func (n StartNode) Label() string  { return n.NodeLabel }

// ApprovalNode pauses the request until a caller holding Role takes one of
// AllowedActions
type ApprovalNode struct {
	NodeID         string
	NodeLabel      string
	Role           roles.Role
	AllowedActions []string
}

func (n ApprovalNode) ID() string     { return n.NodeID }
func (n ApprovalNode) Kind() NodeKind { return KindApproval }
func (n ApprovalNode) Label() string  { return n.NodeLabel }

// ActionNode waits for a work action (e.g. complete) by a caller holding Role
type ActionNode struct {
	NodeID         string
	NodeLabel      string
	Role           roles.Role
	AllowedActions []string
}

func (n ActionNode) ID() string     { return n.NodeID }
func (n ActionNode) Kind() NodeKind { return KindAction }
func (n ActionNode) Label() string  { return n.NodeLabel }

// EndNode terminates a workflow
type EndNode struct {
	NodeID    string
	NodeLabel string
}

func (n EndNode) ID() string     { return n.NodeID }
func (n EndNode) Kind() NodeKind { return KindEnd }
func (n EndNode) Label() string  { return n.NodeLabel }

// ActionableNode returns the role/action requirements of approval and action
// nodes; ok is false for start/end nodes.
func ActionableNode(n Node) (role roles.Role, allowedActions []string, ok bool) {
	switch v := n.(type) {
	case ApprovalNode:
		return v.Role, v.AllowedActions, true
	case ActionNode:
		return v.Role, v.AllowedActions, true
	}
	return "", nil, false
}

// Edge is a directed transition between two nodes. Action-tagged edges only
// match when the request is advanced with that action; Condition is an
// expr-lang predicate over the request's form data.
type Edge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Action    string `json:"action,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// ConditionEvaluator evaluates edge conditions against form data
type ConditionEvaluator interface {
	EvaluateBool(expression string, env map[string]interface{}) (bool, error)
	Validate(expression string) error
}

// Definition is a parsed, validated workflow graph
type Definition struct {
	WorkflowID string
	Name       string

	nodes   map[string]Node
	order   []string // node ids in definition order
	edges   []Edge
	startID string
}

// raw wire shapes

type rawDefinition struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Nodes []rawNode `json:"nodes"`
	Edges []Edge    `json:"edges"`
}

type rawNode struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data rawNodeData `json:"data"`
}

type rawNodeData struct {
	Label          string   `json:"label"`
	Role           string   `json:"role"`
	AllowedActions []string `json:"allowedActions"`
}

// Parse decodes and validates a JSON workflow definition. The evaluator is
// used to compile-check edge conditions; a malformed condition fails the whole
// definition here instead of at traversal time.
func Parse(raw []byte, eval ConditionEvaluator) (*Definition, error) {
	var rd rawDefinition
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, apperrors.NewValidationError("definition", fmt.Sprintf("invalid JSON: %v", err))
	}

	if rd.ID == "" {
		return nil, apperrors.NewValidationError("id", "workflow definition must declare an id")
	}
	if len(rd.Nodes) == 0 {
		return nil, apperrors.NewValidationError("nodes", "workflow definition has no nodes")
	}

	def := &Definition{
		WorkflowID: rd.ID,
		Name:       rd.Name,
		nodes:      make(map[string]Node, len(rd.Nodes)),
		order:      make([]string, 0, len(rd.Nodes)),
		edges:      rd.Edges,
	}

	for _, rn := range rd.Nodes {
		if rn.ID == "" {
			return nil, apperrors.NewValidationError("nodes", "node without id")
		}
		if _, dup := def.nodes[rn.ID]; dup {
			return nil, apperrors.NewValidationError("nodes", fmt.Sprintf("duplicate node id '%s'", rn.ID))
		}

		node, err := buildNode(rn)
		if err != nil {
			return nil, err
		}
		def.nodes[rn.ID] = node
		def.order = append(def.order, rn.ID)

		if node.Kind() == KindStart {
			if def.startID != "" {
				return nil, apperrors.NewValidationError("nodes", "workflow has more than one start node")
			}
			def.startID = rn.ID
		}
	}

	if def.startID == "" {
		return nil, apperrors.NewValidationError("nodes", "workflow has no start node")
	}

	for i, e := range def.edges {
		if _, ok := def.nodes[e.Source]; !ok {
			return nil, apperrors.NewValidationError("edges", fmt.Sprintf("edge %d references unknown source '%s'", i, e.Source))
		}
		if _, ok := def.nodes[e.Target]; !ok {
			return nil, apperrors.NewValidationError("edges", fmt.Sprintf("edge %d references unknown target '%s'", i, e.Target))
		}
		if def.nodes[e.Source].Kind() == KindEnd {
			return nil, apperrors.NewValidationError("edges", fmt.Sprintf("edge %d leaves terminal node '%s'", i, e.Source))
		}
		if e.Condition != "" && eval != nil {
			if err := eval.Validate(e.Condition); err != nil {
				return nil, apperrors.NewValidationError("edges", fmt.Sprintf("edge %d condition does not compile: %v", i, err))
			}
		}
	}

	if err := def.checkReachability(); err != nil {
		return nil, err
	}
	if err := def.checkSilentCycles(); err != nil {
		return nil, err
	}

	return def, nil
}

func buildNode(rn rawNode) (Node, error) {
	switch NodeKind(rn.Type) {
	case KindStart:
		return StartNode{NodeID: rn.ID, NodeLabel: rn.Data.Label}, nil
	case KindEnd:
		return EndNode{NodeID: rn.ID, NodeLabel: rn.Data.Label}, nil
	case KindApproval, KindAction:
		role, ok := roles.Normalize(rn.Data.Role)
		if !ok {
			return nil, apperrors.NewValidationError("nodes", fmt.Sprintf("node '%s' has missing or unknown role '%s'", rn.ID, rn.Data.Role))
		}
		if len(rn.Data.AllowedActions) == 0 {
			return nil, apperrors.NewValidationError("nodes", fmt.Sprintf("node '%s' declares no allowed actions", rn.ID))
		}
		if NodeKind(rn.Type) == KindApproval {
			return ApprovalNode{NodeID: rn.ID, NodeLabel: rn.Data.Label, Role: role, AllowedActions: rn.Data.AllowedActions}, nil
		}
		return ActionNode{NodeID: rn.ID, NodeLabel: rn.Data.Label, Role: role, AllowedActions: rn.Data.AllowedActions}, nil
	default:
		return nil, apperrors.NewValidationError("nodes", fmt.Sprintf("node '%s' has unknown type '%s'", rn.ID, rn.Type))
	}
}

// checkReachability verifies every non-terminal node can be reached from start
func (d *Definition) checkReachability() error {
	visited := map[string]bool{d.startID: true}
	queue := []string{d.startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range d.edges {
			if e.Source == current && !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	for _, id := range d.order {
		if d.nodes[id].Kind() == KindEnd {
			continue
		}
		if !visited[id] {
			return apperrors.NewValidationError("nodes", fmt.Sprintf("node '%s' is not reachable from start", id))
		}
	}
	return nil
}

// checkSilentCycles rejects cycles that never pass through an approval or
// action node. Rework loops (e.g. send_back) are legal because each traversal
// requires an external action to advance; a cycle among passive nodes would
// spin with no observable progress.
func (d *Definition) checkSilentCycles() error {
	passive := make(map[string]bool)
	for id, n := range d.nodes {
		if _, _, ok := ActionableNode(n); !ok {
			passive[id] = true
		}
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int)

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = grey
		for _, e := range d.edges {
			if e.Source != id || !passive[e.Target] {
				continue
			}
			switch color[e.Target] {
			case grey:
				return true
			case white:
				if visit(e.Target) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for id := range passive {
		if color[id] == white && visit(id) {
			return apperrors.NewValidationError("edges", "workflow contains a cycle with no approval or action step")
		}
	}
	return nil
}

// FindNode returns the node with the given id
func (d *Definition) FindNode(id string) (Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Start returns the workflow's start node id
func (d *Definition) Start() string {
	return d.startID
}

// IsTerminal reports whether the node id names an end node
func (d *Definition) IsTerminal(id string) bool {
	n, ok := d.nodes[id]
	return ok && n.Kind() == KindEnd
}

// NodeIDs returns all node ids in definition order
func (d *Definition) NodeIDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Successors returns the ordered candidate next node ids when the given
// action is taken at nodeID. Edges tagged with the taken action precede
// untagged default edges; within each group, conditional edges are filtered
// against the form data and definition order breaks ties. A condition that
// fails to evaluate makes its edge non-matching.
func (d *Definition) Successors(nodeID, action string, formData map[string]interface{}, eval ConditionEvaluator) []string {
	env := map[string]interface{}{"form": formData}
	if formData == nil {
		env["form"] = map[string]interface{}{}
	}

	matches := func(e Edge) bool {
		if e.Condition == "" {
			return true
		}
		if eval == nil {
			return false
		}
		ok, err := eval.EvaluateBool(e.Condition, env)
		if err != nil {
			// Conditions are compile-checked at parse time, so a runtime
			// failure means the form data drifted from what the condition
			// expects. Treat the edge as non-matching.
			log.Printf("⚠️ Workflow %s: condition on edge %s→%s failed: %v", d.WorkflowID, e.Source, e.Target, err)
			return false
		}
		return ok
	}

	var actionTargets, defaultTargets []string
	for _, e := range d.edges {
		if e.Source != nodeID {
			continue
		}
		switch {
		case e.Action != "" && e.Action == action:
			if matches(e) {
				actionTargets = append(actionTargets, e.Target)
			}
		case e.Action == "":
			if matches(e) {
				defaultTargets = append(defaultTargets, e.Target)
			}
		}
	}

	return append(actionTargets, defaultTargets...)
}
