package graph

import (
	"fmt"

	"github.com/mur-run/flowspec/internal/flowspec"
)

// Grid layout constants.
const (
	Columns     = 3
	NodeWidth   = 250
	NodeHeight  = 120
	SpacingX    = 100
	SpacingY    = 150
	NodeType    = "stepNode"
	EdgeType    = "smoothstep"
	placeholder = "step_%d"
)

// Position is a node's top-left corner.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NodeData summarizes the step a node renders.
type NodeData struct {
	Step             *flowspec.Step `json:"-"`
	HasToken         bool           `json:"hasToken"`
	InstructionCount int            `json:"instructionCount"`
	CheckCount       int            `json:"checkCount"`
}

// Node is one step placed on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge is a drawn transition. Implicit fall-through edges have no label.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type"`
	Implicit bool   `json:"implicit,omitempty"`
}

// Data is the presentation graph of a Flow.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build lays flow out on a grid and lists its edges. A step with explicit
// next edges draws those; any other step except the last falls through to
// its successor.
func Build(flow *flowspec.Flow) Data {
	data := Data{Nodes: []Node{}, Edges: []Edge{}}
	if flow == nil || len(flow.Steps) == 0 {
		return data
	}

	steps := flow.Steps
	for i := range steps {
		s := &steps[i]
		row, col := i/Columns, i%Columns
		checks := 0
		if s.Acceptance != nil {
			checks = len(s.Acceptance.Checks)
		}
		data.Nodes = append(data.Nodes, Node{
			ID:   nodeID(s, i),
			Type: NodeType,
			Position: Position{
				X: col * (NodeWidth + SpacingX),
				Y: row * (NodeHeight + SpacingY),
			},
			Data: NodeData{
				Step:             s,
				HasToken:         s.Token != nil,
				InstructionCount: len(s.Instructions),
				CheckCount:       checks,
			},
		})
	}

	for i := range steps {
		s := &steps[i]
		src := nodeID(s, i)
		if len(s.Next) > 0 {
			for j, e := range s.Next {
				if e.To == "" {
					continue
				}
				data.Edges = append(data.Edges, Edge{
					ID:     fmt.Sprintf("%s->%s-%d", src, e.To, j),
					Source: src,
					Target: e.To,
					Label:  e.When,
					Type:   EdgeType,
				})
			}
			continue
		}
		if i < len(steps)-1 {
			dst := nodeID(&steps[i+1], i+1)
			data.Edges = append(data.Edges, Edge{
				ID:       src + "->" + dst,
				Source:   src,
				Target:   dst,
				Type:     EdgeType,
				Implicit: true,
			})
		}
	}
	return data
}

func nodeID(s *flowspec.Step, i int) string {
	if s.ID == "" {
		return fmt.Sprintf(placeholder, i)
	}
	return s.ID
}
