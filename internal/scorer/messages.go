package scorer

type scoreBand struct {
	min     int
	max     int
	message string
}

var scoreBands = []scoreBand{
	{90, 100, "💖 Perfect Match! You two are soulmates written in the stars!"},
	{75, 89, "💕 Amazing Connection! You complement each other beautifully!"},
	{60, 74, "💗 Strong Potential! With understanding, you can build something special!"},
	{45, 59, "💓 Interesting Mix! Opposites attract, embrace your differences!"},
	{30, 44, "💔 Challenging Match! It'll take work, but love conquers all!"},
	{0, 29, "🔥 Spicy Combo! You're very different, but that makes it exciting!"},
}

func messageForScore(score int) string {
	for _, band := range scoreBands {
		if score >= band.min && score <= band.max {
			return band.message
		}
	}
	return "💝 Love is unpredictable!"
}
