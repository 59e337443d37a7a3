package domain

// NodeSnapshot is a point-in-time view of one node and its subtree.
type NodeSnapshot struct {
	Name     string          `json:"name"`
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Status   Status          `json:"status"`
	Children []*NodeSnapshot `json:"children,omitempty"`
}

// TreeSnapshot is a point-in-time view of a running tree instance.
type TreeSnapshot struct {
	TreeID     string            `json:"tree_id"`
	UID        string            `json:"uid"`
	Status     Status            `json:"status"`
	Rounds     int               `json:"rounds"`
	Root       *NodeSnapshot     `json:"root"`
	Blackboard map[string]string `json:"blackboard"`
}
