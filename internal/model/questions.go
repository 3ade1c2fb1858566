package model

// Answer validation bounds. These are part of the wire contract: every
// submission must carry exactly NumQuestions values in [AnswerMin, AnswerMax].
const (
	NumQuestions = 5
	AnswerMin    = 1
	AnswerMax    = 5
)

type Question struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Emoji    string `json:"emoji"`
	MinLabel string `json:"min_label"`
	MaxLabel string `json:"max_label"`
}

// Questions is the fixed catalog served to clients. Its length must stay
// equal to NumQuestions.
var Questions = []Question{
	{
		ID:       1,
		Question: "Are you a morning person or a night owl?",
		Emoji:    "🌙",
		MinLabel: "Early bird",
		MaxLabel: "Night owl",
	},
	{
		ID:       2,
		Question: "Do you prefer cozy nights in or going out?",
		Emoji:    "🏠",
		MinLabel: "Stay home",
		MaxLabel: "Go out",
	},
	{
		ID:       3,
		Question: "How much do you value privacy in a relationship?",
		Emoji:    "🔐",
		MinLabel: "Share everything",
		MaxLabel: "Keep some secrets",
	},
	{
		ID:       4,
		Question: "Are you a planner or do you go with the flow?",
		Emoji:    "🗓️",
		MinLabel: "Plan it all",
		MaxLabel: "Wing it",
	},
	{
		ID:       5,
		Question: "How adventurous are you with food?",
		Emoji:    "🌶️",
		MinLabel: "Stick to favorites",
		MaxLabel: "Try anything",
	},
}
