package statusbar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/metrics"
)

func TestModel_View_WaitingForAgents(t *testing.T) {
	m := model{}
	require.Contains(t, m.View(), "waiting for agents")
}

func TestModel_View_ClusterDoneRendersNothing(t *testing.T) {
	m := model{clusterDone: true}
	require.Empty(t, m.View())
}

func TestModel_View_RendersOneRowPerAgent(t *testing.T) {
	m := model{
		agents: []agent.Status{
			{AgentID: "implementer", State: agent.StateExecuting},
			{AgentID: "reviewer", State: agent.StateIdle},
		},
		samples: map[string]metrics.Sample{},
	}
	out := m.View()
	require.Equal(t, 2, strings.Count(out, "\n"))
	require.Contains(t, out, "implementer")
	require.Contains(t, out, "reviewer")
}

func TestModel_RenderAgentRow_IncludesSampledMetrics(t *testing.T) {
	m := model{samples: map[string]metrics.Sample{
		"worker": {CPUPercent: 42.5, RSSBytes: 10 * 1024 * 1024},
	}}
	row := m.renderAgentRow(agent.Status{AgentID: "worker", State: agent.StateExecuting})
	require.Contains(t, row, "cpu=")
	require.Contains(t, row, "rss=10MB")
}

func TestModel_RenderAgentRow_TruncatesLongNames(t *testing.T) {
	m := model{samples: map[string]metrics.Sample{}}
	row := m.renderAgentRow(agent.Status{AgentID: "a-very-long-agent-identifier-that-overflows", State: agent.StateIdle})
	require.Contains(t, row, "…")
}

func TestUpdate_SampleMsgStoresSample(t *testing.T) {
	m := model{samples: make(map[string]metrics.Sample)}
	updated, cmd := m.Update(sampleMsg{agentID: "worker", sample: metrics.Sample{CPUPercent: 10}})
	require.Nil(t, cmd)
	mm := updated.(model)
	require.Equal(t, 10.0, mm.samples["worker"].CPUPercent)
}
