package graph

// Graph owns a slab of Node values keyed by stable NodeID; all cross-node
// references use NodeID rather than direct references, eliminating
// dangling-reference risk and making node removal a purely index-level
// operation (spec.md §9).
type Graph struct {
	Name   string
	nodes  map[NodeID]*Node
	nextID NodeID
}

// New creates an empty named graph. NextID starts at 1; 0 is reserved as
// the halt sentinel and is never allocated.
func New(name string) *Graph {
	return &Graph{
		Name:   name,
		nodes:  make(map[NodeID]*Node),
		nextID: 1,
	}
}

// AddNode creates a fresh node with the given op and inserts it, returning
// its freshly allocated id.
func (g *Graph) AddNode(op OpCode) NodeID {
	id := g.nextID
	g.nextID++
	g.nodes[id] = newNode(id, op)
	return id
}

// AddNodeOwned inserts a fully constructed node, taking ownership of its
// ID. Used by the disk codec and the builder's lower-level paths. It
// advances NextID past node.ID if necessary so future AddNode calls never
// collide.
func (g *Graph) AddNodeOwned(node *Node) {
	if node.ControlInputs == nil {
		node.ControlInputs = make(map[NodeID]struct{})
	}
	g.nodes[node.ID] = node
	if node.ID >= g.nextID {
		g.nextID = node.ID + 1
	}
}

// Get returns the node with the given id, or ok=false if absent.
func (g *Graph) Get(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// GetMutable is an alias for Get: Node is always stored and returned by
// pointer, so mutation goes through the same accessor as read access.
func (g *Graph) GetMutable(id NodeID) (*Node, bool) {
	return g.Get(id)
}

// Len reports the number of live nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NextID reports the id that would be assigned by the next AddNode call.
func (g *Graph) NextID() NodeID {
	return g.nextID
}

// Nodes returns every live NodeID. Order is unspecified (map iteration);
// callers needing determinism should sort.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// RemoveNode strips every inbound data-input reference to id across all
// other nodes, removes every symmetric control edge touching id, and
// erases the node itself. Returns false if id does not exist.
func (g *Graph) RemoveNode(id NodeID) bool {
	target, ok := g.nodes[id]
	if !ok {
		return false
	}

	for _, other := range g.nodes {
		if other.ID == id {
			continue
		}
		for i := range other.DataInputs {
			if other.DataInputs[i].Node == id {
				other.DataInputs[i] = PortRef{}
			}
		}
	}

	for pred := range target.ControlInputs {
		if p, ok := g.nodes[pred]; ok {
			p.ControlOutputs = removeNodeID(p.ControlOutputs, id)
		}
	}
	for _, succ := range target.ControlOutputs {
		if s, ok := g.nodes[succ]; ok {
			delete(s.ControlInputs, id)
		}
	}

	delete(g.nodes, id)
	return true
}

func removeNodeID(ids []NodeID, target NodeID) []NodeID {
	out := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// ConnectData binds dst's data_inputs[dstPort] to (src, srcPort), growing
// dst.DataInputs if needed. Silently overwrites any existing binding at
// that slot. Returns false if src, dst don't exist or srcPort is out of
// range of src's declared outputs.
func (g *Graph) ConnectData(src NodeID, srcPort uint32, dst NodeID, dstPort uint32) bool {
	srcNode, ok := g.nodes[src]
	if !ok {
		return false
	}
	dstNode, ok := g.nodes[dst]
	if !ok {
		return false
	}
	if int(srcPort) >= len(srcNode.DataOutputs) {
		return false
	}
	for uint32(len(dstNode.DataInputs)) <= dstPort {
		dstNode.DataInputs = append(dstNode.DataInputs, PortRef{})
	}
	dstNode.DataInputs[dstPort] = PortRef{Node: src, Port: srcPort}
	return true
}

// ConnectControl adds a symmetric control edge src -> dst. Idempotent on
// duplicates (invariant I2 / invariant 3 of spec.md §3). Returns false if
// either node does not exist.
func (g *Graph) ConnectControl(src, dst NodeID) bool {
	srcNode, ok := g.nodes[src]
	if !ok {
		return false
	}
	dstNode, ok := g.nodes[dst]
	if !ok {
		return false
	}
	if srcNode.HasControlOutput(dst) {
		return true
	}
	srcNode.ControlOutputs = append(srcNode.ControlOutputs, dst)
	dstNode.ControlInputs[src] = struct{}{}
	return true
}

// DisconnectControl removes the symmetric control edge src -> dst, if
// present.
func (g *Graph) DisconnectControl(src, dst NodeID) bool {
	srcNode, ok := g.nodes[src]
	if !ok {
		return false
	}
	dstNode, ok := g.nodes[dst]
	if !ok {
		return false
	}
	if !srcNode.HasControlOutput(dst) {
		return false
	}
	srcNode.ControlOutputs = removeNodeID(srcNode.ControlOutputs, dst)
	delete(dstNode.ControlInputs, src)
	return true
}

// Consumers returns every (NodeID, input slot) pair whose data_inputs
// reference (producer, port).
func (g *Graph) Consumers(producer NodeID, port uint32) []PortRef {
	var out []PortRef
	for _, n := range g.nodes {
		for i, in := range n.DataInputs {
			if in.Node == producer && in.Port == port {
				out = append(out, PortRef{Node: n.ID, Port: uint32(i)})
			}
		}
	}
	return out
}

// ControlPredecessors returns the control predecessors of id in
// unspecified order.
func (g *Graph) ControlPredecessors(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]NodeID, 0, len(n.ControlInputs))
	for p := range n.ControlInputs {
		out = append(out, p)
	}
	return out
}

// ControlSuccessors returns the ordered control successors of id.
func (g *Graph) ControlSuccessors(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.ControlOutputs...)
}
