package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphFlow() *Flow {
	return &Flow{
		ID:          "flow-1",
		Name:        "Graph helpers",
		TriggerType: "order_created",
		Active:      true,
		Nodes: []*Node{
			{ID: "trigger", Type: NodeTypeTrigger},
			{ID: "split", Type: NodeTypeConditionalSplit},
			{ID: "send-vip", Type: NodeTypeSendMessage},
			{ID: "send-regular", Type: NodeTypeSendMessage},
			{ID: "end", Type: NodeTypeEnd},
		},
		Edges: []*Edge{
			{ID: "e1", Source: "trigger", Target: "split"},
			{ID: "e2", Source: "split", Target: "send-vip", SourceHandle: EdgeHandleTrue},
			{ID: "e3", Source: "split", Target: "send-regular", SourceHandle: EdgeHandleFalse},
			{ID: "e4", Source: "send-vip", Target: "end"},
			{ID: "e5", Source: "send-regular", Target: "end"},
		},
	}
}

func TestFlow_NodeLookups(t *testing.T) {
	flow := graphFlow()

	node, ok := flow.NodeByID("split")
	require.True(t, ok)
	assert.Equal(t, NodeTypeConditionalSplit, node.Type)

	_, ok = flow.NodeByID("missing")
	assert.False(t, ok)

	trigger, ok := flow.TriggerNode()
	require.True(t, ok)
	assert.Equal(t, "trigger", trigger.ID)

	flow.Nodes = flow.Nodes[1:]
	_, ok = flow.TriggerNode()
	assert.False(t, ok)
}

func TestFlow_EdgeLookups(t *testing.T) {
	flow := graphFlow()

	edges := flow.OutgoingEdges("split")
	require.Len(t, edges, 2)
	assert.Equal(t, "send-vip", edges[0].Target)
	assert.Equal(t, "send-regular", edges[1].Target)

	assert.Empty(t, flow.OutgoingEdges("end"))

	edge, ok := flow.OutgoingEdgeByHandle("split", EdgeHandleFalse)
	require.True(t, ok)
	assert.Equal(t, "send-regular", edge.Target)

	_, ok = flow.OutgoingEdgeByHandle("split", "maybe")
	assert.False(t, ok)

	assert.Equal(t, 2, flow.IncomingEdgeCount("end"))
	assert.Equal(t, 0, flow.IncomingEdgeCount("trigger"))
}

func TestChildBranchID(t *testing.T) {
	assert.Equal(t, "root_0", ChildBranchID(RootBranchID, 0))
	assert.Equal(t, "root_1_2", ChildBranchID("root_1", 2))
}

func TestExecutionRecord_Helpers(t *testing.T) {
	record := &ExecutionRecord{
		ID: "exec-1",
		Branches: []*Branch{
			{ID: "root", Status: BranchStatusCompleted},
			{ID: "root_0", Status: BranchStatusDelayed},
			{ID: "root_1", Status: BranchStatusRunning},
		},
		NodeExecutions: []*NodeExecution{
			{NodeID: "trigger", Status: NodeExecutionStatusCompleted},
			{NodeID: "send", Status: NodeExecutionStatusFailed},
			{NodeID: "note", Status: NodeExecutionStatusFailed},
		},
	}

	branch, ok := record.BranchByID("root_0")
	require.True(t, ok)
	assert.Equal(t, BranchStatusDelayed, branch.Status)

	_, ok = record.BranchByID("root_9")
	assert.False(t, ok)

	ne, ok := record.NodeExecutionByID("send")
	require.True(t, ok)
	assert.Equal(t, NodeExecutionStatusFailed, ne.Status)

	assert.Equal(t, []string{"send", "note"}, record.FailedNodeIDs())

	assert.True(t, record.HasOtherBranchInStatus("root_0", BranchStatusRunning))
	assert.False(t, record.HasOtherBranchInStatus("root_1", BranchStatusRunning))
}
