package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/builder"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

var opcodeByName = buildOpcodeIndex()

func buildOpcodeIndex() map[string]graph.OpCode {
	idx := make(map[string]graph.OpCode)
	for op := graph.OpNop; op <= graph.OpMatMul; op++ {
		idx[op.String()] = op
	}
	return idx
}

var typeByName = map[string]bditypes.Type{
	"BOOL": bditypes.BOOL, "INT8": bditypes.INT8, "INT16": bditypes.INT16,
	"INT32": bditypes.INT32, "INT64": bditypes.INT64,
	"UINT8": bditypes.UINT8, "UINT16": bditypes.UINT16,
	"UINT32": bditypes.UINT32, "UINT64": bditypes.UINT64,
	"FLOAT32": bditypes.FLOAT32, "FLOAT64": bditypes.FLOAT64,
	"POINTER": bditypes.POINTER, "MEM_REF": bditypes.MEM_REF,
	"FUNC_PTR": bditypes.FUNC_PTR, "NODE_ID": bditypes.NODE_ID,
	"REGION_ID": bditypes.REGION_ID,
}

// ParseScript compiles the tiny builder-script text format into a graph,
// for manual testing of the interpreter/folder without a real front-end.
// Grammar, one statement per line ('#' starts a comment, blank lines
// ignored), labels are caller-chosen names resolved to builder-assigned
// NodeIDs:
//
//	node <label> <OPNAME> [debug-name]
//	out  <label> <TYPE> [port-name]
//	payload <label> <TYPE> <value>
//	data <srcLabel> <srcPort> <dstLabel> <dstPort>
//	control <srcLabel> <dstLabel>
//	region <label> <regionID>
func ParseScript(r io.Reader, graphName string, store *metadata.Store) (*graph.Graph, error) {
	b := builder.New(graphName, store, nil)
	labels := make(map[string]graph.NodeID)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if err := applyStatement(b, labels, fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func applyStatement(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "node":
		return stmtNode(b, labels, fields)
	case "out":
		return stmtOut(b, labels, fields)
	case "payload":
		return stmtPayload(b, labels, fields)
	case "data":
		return stmtData(b, labels, fields)
	case "control":
		return stmtControl(b, labels, fields)
	case "region":
		return stmtRegion(b, labels, fields)
	default:
		return fmt.Errorf("unknown statement %q", fields[0])
	}
}

func stmtNode(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("node: expected 'node <label> <OPNAME> [debug-name]'")
	}
	label, opName := fields[1], fields[2]
	if _, exists := labels[label]; exists {
		return fmt.Errorf("node: label %q already defined", label)
	}
	op, ok := opcodeByName[strings.ToUpper(opName)]
	if !ok {
		return fmt.Errorf("node: unknown opcode %q", opName)
	}
	debugName := ""
	if len(fields) > 3 {
		debugName = strings.Join(fields[3:], " ")
	}
	labels[label] = b.AddNode(op, debugName, debugName)
	return nil
}

func stmtOut(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("out: expected 'out <label> <TYPE> [port-name]'")
	}
	id, err := resolveLabel(labels, fields[1])
	if err != nil {
		return err
	}
	t, ok := typeByName[strings.ToUpper(fields[2])]
	if !ok {
		return fmt.Errorf("out: unknown type %q", fields[2])
	}
	name := ""
	if len(fields) > 3 {
		name = fields[3]
	}
	if _, ok := b.DefineOutput(id, t, name); !ok {
		return fmt.Errorf("out: failed to define output on %q", fields[1])
	}
	return nil
}

func stmtPayload(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("payload: expected 'payload <label> <TYPE> <value>'")
	}
	id, err := resolveLabel(labels, fields[1])
	if err != nil {
		return err
	}
	t, ok := typeByName[strings.ToUpper(fields[2])]
	if !ok {
		return fmt.Errorf("payload: unknown type %q", fields[2])
	}
	v, err := parseLiteral(t, fields[3])
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if !b.SetPayload(id, variant.VariantToPayload(v)) {
		return fmt.Errorf("payload: failed to set payload on %q", fields[1])
	}
	return nil
}

func stmtData(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) != 5 {
		return fmt.Errorf("data: expected 'data <srcLabel> <srcPort> <dstLabel> <dstPort>'")
	}
	src, err := resolveLabel(labels, fields[1])
	if err != nil {
		return err
	}
	srcPort, err := parsePort(fields[2])
	if err != nil {
		return err
	}
	dst, err := resolveLabel(labels, fields[3])
	if err != nil {
		return err
	}
	dstPort, err := parsePort(fields[4])
	if err != nil {
		return err
	}
	if !b.ConnectData(src, srcPort, dst, dstPort) {
		return fmt.Errorf("data: failed to connect %s.%d -> %s.%d", fields[1], srcPort, fields[3], dstPort)
	}
	return nil
}

func stmtControl(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("control: expected 'control <srcLabel> <dstLabel>'")
	}
	src, err := resolveLabel(labels, fields[1])
	if err != nil {
		return err
	}
	dst, err := resolveLabel(labels, fields[2])
	if err != nil {
		return err
	}
	if !b.ConnectControl(src, dst) {
		return fmt.Errorf("control: failed to connect %s -> %s", fields[1], fields[2])
	}
	return nil
}

func stmtRegion(b *builder.Builder, labels map[string]graph.NodeID, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("region: expected 'region <label> <regionID>'")
	}
	id, err := resolveLabel(labels, fields[1])
	if err != nil {
		return err
	}
	region, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return fmt.Errorf("region: invalid region id %q: %w", fields[2], err)
	}
	if !b.SetRegion(id, region) {
		return fmt.Errorf("region: failed to set region on %q", fields[1])
	}
	return nil
}

func resolveLabel(labels map[string]graph.NodeID, label string) (graph.NodeID, error) {
	id, ok := labels[label]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", label)
	}
	return id, nil
}

func parsePort(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return uint32(n), nil
}

func parseLiteral(t bditypes.Type, s string) (variant.Variant, error) {
	switch t {
	case bditypes.BOOL:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return variant.Monostate, err
		}
		return variant.FromBool(b), nil
	case bditypes.INT8:
		n, err := strconv.ParseInt(s, 10, 8)
		return variant.FromI8(int8(n)), err
	case bditypes.INT16:
		n, err := strconv.ParseInt(s, 10, 16)
		return variant.FromI16(int16(n)), err
	case bditypes.INT32:
		n, err := strconv.ParseInt(s, 10, 32)
		return variant.FromI32(int32(n)), err
	case bditypes.INT64:
		n, err := strconv.ParseInt(s, 10, 64)
		return variant.FromI64(n), err
	case bditypes.UINT8:
		n, err := strconv.ParseUint(s, 10, 8)
		return variant.FromU8(uint8(n)), err
	case bditypes.UINT16:
		n, err := strconv.ParseUint(s, 10, 16)
		return variant.FromU16(uint16(n)), err
	case bditypes.UINT32:
		n, err := strconv.ParseUint(s, 10, 32)
		return variant.FromU32(uint32(n)), err
	case bditypes.UINT64:
		n, err := strconv.ParseUint(s, 10, 64)
		return variant.FromU64(n), err
	case bditypes.POINTER, bditypes.MEM_REF, bditypes.FUNC_PTR, bditypes.NODE_ID, bditypes.REGION_ID:
		n, err := strconv.ParseUint(s, 10, 64)
		return variant.FromPtrWord(t, n), err
	case bditypes.FLOAT32:
		f, err := strconv.ParseFloat(s, 32)
		return variant.FromF32(float32(f)), err
	case bditypes.FLOAT64:
		f, err := strconv.ParseFloat(s, 64)
		return variant.FromF64(f), err
	default:
		return variant.Monostate, fmt.Errorf("type %s has no literal form", t)
	}
}
