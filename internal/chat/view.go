package chat

import (
	"fmt"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
)

// Localizer resolves translation keys
type Localizer interface {
	T(key string, fallback ...string) string
}

// Suggestion is a topic offered while the transcript holds only the greeting
type Suggestion struct {
	Icon  string
	Text  string
	Query string
}

var suggestionKeys = []struct {
	icon, topic, query string
}{
	{"📚", "admissionCriteria", "admissionRequirements"},
	{"🧠", "programMajors", "availableMajors"},
	{"⏳", "creditHours", "creditHoursNeeded"},
	{"📝", "registrationDeadlines", "registrationDeadlines"},
	{"🎓", "graduationProject", "graduationProject"},
	{"👨‍🏫", "academicAdvising", "academicAdvising"},
	{"📅", "semesterCalendar", "academicCalendar"},
}

// Suggestions returns the translated suggested topics
func Suggestions(t Localizer) []Suggestion {
	out := make([]Suggestion, len(suggestionKeys))
	for i, k := range suggestionKeys {
		out[i] = Suggestion{
			Icon:  k.icon,
			Text:  t.T("chat.suggestedTopicsList." + k.topic),
			Query: t.T("chat.suggestedQueries." + k.query),
		}
	}
	return out
}

// ShowSuggestions reports whether the transcript holds only the greeting
func ShowSuggestions(messages []domain.Message) bool {
	return len(messages) == 1
}

// Preview returns the sidebar summary of a session
func Preview(s domain.ChatSession, t Localizer) string {
	if len(s.Messages) > 1 {
		last, _ := s.LastMessage()
		return string(firstRunes(last.Content, 50)) + "..."
	}
	return t.T("chat.newConversation", "New conversation")
}

// RelativeDate formats at relative to now in whole days
func RelativeDate(at, now time.Time, t Localizer) string {
	days := int(now.Sub(at) / (24 * time.Hour))
	switch {
	case days == 0:
		return t.T("chat.today", "Today")
	case days == 1:
		return t.T("chat.yesterday", "Yesterday")
	case days > 1 && days < 7:
		return fmt.Sprintf("%d %s", days, t.T("chat.daysAgo", "days ago"))
	}
	return at.Format("2006-01-02")
}
