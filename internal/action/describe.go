package action

import (
	"fmt"
	"strings"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

// Node is a serialisable view of an action tree.
type Node struct {
	Name          string             `json:"name"`
	Kind          string             `json:"kind"`
	State         model.ActionState  `json:"state"`
	Interruptible bool               `json:"interruptible"`
	Requirements  []model.ResourceID `json:"requirements,omitempty"`
	Detail        string             `json:"detail,omitempty"`
	Children      []Node             `json:"children,omitempty"`
}

// Describe captures the current state of a and its descendants. now is the
// scheduler clock, used for time-dependent details.
func Describe(a Action, now time.Duration) Node {
	n := Node{
		Name:          a.Name(),
		Kind:          a.Kind().String(),
		State:         a.State(),
		Interruptible: a.Interruptible(),
		Requirements:  a.Requirements(),
	}
	switch v := a.(type) {
	case *Leaf, *Instant:
	case *Sequential:
		n.Detail = fmt.Sprintf("step %d/%d", min(v.index+1, len(v.children)), len(v.children))
	case *ParallelAll:
		running := 0
		for _, c := range v.children {
			if c.State() == model.ActionStateRunning {
				running++
			}
		}
		n.Detail = fmt.Sprintf("%d/%d running", running, len(v.children))
	case *ParallelRace:
		if v.winner != nil {
			n.Detail = "winner " + v.winner.Name()
		}
	case *Conditional:
		if v.selected != nil {
			n.Detail = "selected " + v.selected.Name()
		}
	case *Timeout:
		switch {
		case v.expired:
			n.Detail = "expired"
		case a.State() == model.ActionStateRunning:
			n.Detail = v.Remaining(now).String() + " left"
		}
	}
	for _, c := range a.Children() {
		n.Children = append(n.Children, Describe(c, now))
	}
	return n
}

// Walk visits a and all of its descendants depth-first.
func Walk(a Action, fn func(depth int, a Action)) {
	walk(a, 0, fn)
}

func walk(a Action, depth int, fn func(int, Action)) {
	fn(depth, a)
	for _, c := range a.Children() {
		walk(c, depth+1, fn)
	}
}

// Tree renders a as an indented outline, one action per line.
func Tree(a Action) string {
	var b strings.Builder
	Walk(a, func(depth int, a Action) {
		fmt.Fprintf(&b, "%s%s [%s %s]\n", strings.Repeat("  ", depth), a.Name(), a.Kind(), a.State())
	})
	return b.String()
}
