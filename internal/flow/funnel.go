package flow

import "leadfunnel/internal/model"

// Question ids of the lead-capture survey
const (
	QUsesBudgetingApp   = "uses_budgeting_app"
	QCurrentTools       = "current_tools"
	QSwitchReason       = "switch_reason"
	QTrackingMethod     = "tracking_method"
	QBudgetingBlockers  = "budgeting_blockers"
	QFinancialGoals     = "financial_goals"
	QFinancialConfident = "financial_confidence"
	QMostWantedFeature  = "most_wanted_feature"
	QPriceExpectation   = "price_expectation"
	QAnythingElse       = "anything_else"
)

// AffirmativeToken selects the "already uses an app" path at the entry question
const AffirmativeToken = "yes"

const otherOption = "Other (please specify)"

// FunnelQuestions is the lead-capture question set. The first entry is the entry question.
func FunnelQuestions() []model.Question {
	return []model.Question{
		{
			ID:     QUsesBudgetingApp,
			Prompt: "Do you currently use a budgeting app?",
			Kind:   model.KindSingleChoice,
			Options: []string{
				"Yes, I use Mint",
				"Yes, I use another budgeting app",
				"No, I don't use a budgeting app",
			},
		},
		{
			ID:      QCurrentTools,
			Prompt:  "Which tools do you use to manage your money today?",
			Kind:    model.KindMultiChoice,
			Options: []string{"Mint", "YNAB", "Monarch", "Copilot", "Spreadsheet", otherOption},
		},
		{
			ID:     QSwitchReason,
			Prompt: "What would make you switch to a new app?",
			Kind:   model.KindSingleChoice,
			Options: []string{
				"My current app is shutting down",
				"Missing features",
				"Too expensive",
				"Privacy concerns",
				otherOption,
			},
		},
		{
			ID:     QTrackingMethod,
			Prompt: "How do you keep track of your spending?",
			Kind:   model.KindSingleChoice,
			Options: []string{
				"Spreadsheet",
				"Pen and paper",
				"My bank's app",
				"I don't track my spending",
				otherOption,
			},
		},
		{
			ID:     QBudgetingBlockers,
			Prompt: "What has kept you from using a budgeting app?",
			Kind:   model.KindMultiChoice,
			Options: []string{
				"Too time-consuming",
				"Too complicated",
				"I don't trust apps with my data",
				"Never found one I liked",
				otherOption,
			},
		},
		{
			ID:     QFinancialGoals,
			Prompt: "What are your financial goals for the next year?",
			Kind:   model.KindMultiChoice,
			Options: []string{
				"Pay off debt",
				"Build an emergency fund",
				"Save for a home",
				"Invest for retirement",
				"Spend less on everyday things",
				otherOption,
			},
		},
		{
			ID:     QFinancialConfident,
			Prompt: "How confident do you feel about your finances?",
			Kind:   model.KindScale,
		},
		{
			ID:     QMostWantedFeature,
			Prompt: "Which feature would help you most?",
			Kind:   model.KindSingleChoice,
			Options: []string{
				"Automatic categorization",
				"Bill reminders",
				"Shared budgets",
				"Investment tracking",
				"Credit score monitoring",
				otherOption,
			},
		},
		{
			ID:     QPriceExpectation,
			Prompt: "What would you expect to pay for an app like this?",
			Kind:   model.KindSingleChoice,
			Options: []string{
				"Free only",
				"Up to $5/month",
				"$5-$10/month",
				"More than $10/month",
			},
		},
		{
			ID:       QAnythingElse,
			Prompt:   "Anything else you'd like us to know?",
			Kind:     model.KindFreeText,
			Optional: true,
		},
	}
}

// CommonSequence is the fixed tail every respondent answers
func CommonSequence() []string {
	return []string{QFinancialGoals, QFinancialConfident, QMostWantedFeature, QPriceExpectation, QAnythingElse}
}

// FunnelTable wires the entry branch, both sub-paths and the common sequence
func FunnelTable() *Table {
	common := CommonSequence()
	return NewTable().
		BranchOnPrefix(QUsesBudgetingApp, AffirmativeToken, QCurrentTools, QTrackingMethod).
		Link(QCurrentTools, QSwitchReason).
		Link(QSwitchReason, common[0]).
		Link(QTrackingMethod, QBudgetingBlockers).
		Link(QBudgetingBlockers, common[0]).
		Sequence(common...)
}

// NewFunnelEngine builds the engine for the lead-capture survey
func NewFunnelEngine() (*Engine, error) {
	catalog, err := NewCatalog(FunnelQuestions())
	if err != nil {
		return nil, err
	}
	return NewEngine(catalog, FunnelTable())
}
