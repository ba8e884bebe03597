package flow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfunnel/internal/model"
)

func TestEntryBranch(t *testing.T) {
	table := FunnelTable()

	yes := table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: "Yes, I use Mint"})
	no := table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: "No"})
	assert.Equal(t, QCurrentTools, yes)
	assert.Equal(t, QTrackingMethod, no)

	assert.Equal(t, QCurrentTools, table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: "  yes please"}))
	assert.Equal(t, QTrackingMethod, table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: "ye"}))
	assert.Equal(t, QTrackingMethod, table.NextQuestion(QUsesBudgetingApp, model.Answer{}))
}

func TestEntryBranchNeedsWholeWord(t *testing.T) {
	table := FunnelTable()

	for _, text := range []string{"yes", "YES!", "Yes, I use Mint", "yes-ish"} {
		assert.Equal(t, QCurrentTools, table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: text}), text)
	}
	for _, text := range []string{"Yesterday I stopped", "yes2", "Yesss"} {
		assert.Equal(t, QTrackingMethod, table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: text}), text)
	}
}

func TestPathsConverge(t *testing.T) {
	table := FunnelTable()
	walk := func(entry string) []string {
		var path []string
		id := table.NextQuestion(QUsesBudgetingApp, model.Answer{Text: entry})
		for id != Terminal {
			path = append(path, id)
			id = table.NextQuestion(id, model.Answer{})
		}
		return path
	}

	yesPath := walk("Yes, I use another budgeting app")
	noPath := walk("No, I don't use a budgeting app")

	assert.Equal(t, []string{QCurrentTools, QSwitchReason}, yesPath[:2])
	assert.Equal(t, []string{QTrackingMethod, QBudgetingBlockers}, noPath[:2])
	assert.Equal(t, CommonSequence(), yesPath[2:])
	assert.Equal(t, CommonSequence(), noPath[2:])
}

func TestTailIgnoresAnswerContent(t *testing.T) {
	table := FunnelTable()
	for _, a := range []model.Answer{{}, {Text: "yes"}, {Scale: 3}, {Choices: []string{"No"}}} {
		assert.Equal(t, QMostWantedFeature, table.NextQuestion(QFinancialConfident, a))
	}
	assert.Equal(t, Terminal, table.NextQuestion(QAnythingElse, model.Answer{Text: "thanks"}))
}

func TestUnknownIDFallsBackToTerminal(t *testing.T) {
	table := FunnelTable()
	next, known := table.Lookup("nope", model.Answer{Text: "yes"})
	assert.Equal(t, Terminal, next)
	assert.False(t, known)
}

func TestEverySuccessorIsInCatalog(t *testing.T) {
	c, err := NewCatalog(FunnelQuestions())
	require.NoError(t, err)
	table := FunnelTable()

	answers := []model.Answer{{}, {Text: "Yes"}, {Text: "No"}, {Scale: 7}, {Choices: []string{"x"}}}
	for _, id := range c.IDs() {
		for _, a := range answers {
			next := table.NextQuestion(id, a)
			if next == Terminal {
				continue
			}
			_, err := c.GetQuestion(next)
			assert.NoError(t, err, "%s -> %s", id, next)
		}
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	c, err := NewCatalog([]model.Question{
		{ID: "a", Kind: model.KindFreeText},
		{ID: "b", Kind: model.KindFreeText},
	})
	require.NoError(t, err)

	assert.NoError(t, NewTable().Sequence("a", "b").Validate(c))
	assert.Error(t, NewTable().Link("a", "zzz").Link("b", Terminal).Validate(c))
	assert.Error(t, NewTable().Link("a", "b").Validate(c), "b has no route")
	assert.Error(t, NewTable().Sequence("a", "b").Link("ghost", "a").Validate(c))

	_, err = NewEngine(c, NewTable().Link("a", "zzz"))
	assert.Error(t, err)
}

func TestWriteDOT(t *testing.T) {
	e, err := NewFunnelEngine()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, e))
	out := buf.String()

	assert.Contains(t, out, "digraph survey {")
	assert.Contains(t, out, `"uses_budgeting_app" -> "current_tools" [label="yes*"];`)
	assert.Contains(t, out, `"uses_budgeting_app" -> "tracking_method" [label="else"];`)
	assert.Contains(t, out, `"anything_else" -> "contact";`)
}
