package chat

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// ResponseGenerator produces the advisor's reply to a user message
type ResponseGenerator interface {
	Respond(ctx context.Context, message string) (string, error)
}

type keywordAnswer struct {
	keyword string
	answer  string
}

// Checked in order; the first keyword contained in the message wins.
var keywordAnswers = []keywordAnswer{
	{"admission", "For admission to the Faculty of AI, you need a high school certificate with a science or math track. International students must pass a math qualifier. The minimum grade requirements vary each year based on competition."},
	{"credit", "You need 146 credit hours to graduate, distributed over 4 academic years (8 semesters). This includes core courses, electives, field training, and your graduation project."},
	{"majors", "We offer four main specializations: Data Science, Machine Intelligence, Cybersecurity, and Intelligent Systems. Each program is designed to prepare you for the future of AI technology."},
	{"project", "The graduation project is worth 6 credit hours and spans your final year. You'll work on a real-world AI problem under faculty supervision. Field training (internship) is also mandatory."},
}

// DefaultAnswer is returned when no keyword matches
const DefaultAnswer = "Thank you for your question! I'm here to help with information about the Faculty of Artificial Intelligence at Menoufia University. Could you please be more specific about what you'd like to know?"

// KeywordGenerator answers from a fixed keyword table after a random delay
// in [MinDelay, MaxDelay].
type KeywordGenerator struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewKeywordGenerator creates a generator with the given delay bounds
func NewKeywordGenerator(minDelay, maxDelay time.Duration) *KeywordGenerator {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &KeywordGenerator{MinDelay: minDelay, MaxDelay: maxDelay}
}

// Respond waits for the artificial delay and returns the matching answer
func (g *KeywordGenerator) Respond(ctx context.Context, message string) (string, error) {
	if d := g.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return Answer(message), nil
}

func (g *KeywordGenerator) delay() time.Duration {
	spread := g.MaxDelay - g.MinDelay
	if spread <= 0 {
		return g.MinDelay
	}
	return g.MinDelay + time.Duration(rand.Int64N(int64(spread)+1))
}

// Answer returns the keyword table's reply for message without delay
func Answer(message string) string {
	lower := strings.ToLower(message)
	for _, ka := range keywordAnswers {
		if strings.Contains(lower, ka.keyword) {
			return ka.answer
		}
	}
	return DefaultAnswer
}
