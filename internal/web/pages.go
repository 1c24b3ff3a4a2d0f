package web

import (
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/i18n"
)

type feature struct {
	Icon  string
	Key   string
	Brief bool
}

var homeFeatures = []feature{
	{"🎓", "admissionRequirements", false},
	{"📚", "academicPrograms", false},
	{"⏳", "creditHourSystem", false},
	{"📝", "courseRegistration", false},
	{"🧪", "graduationProject", false},
	{"🏢", "fieldTraining", false},
	{"📊", "gradingGPA", true},
	{"🗓️", "attendanceExams", true},
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	p.Data = map[string]any{
		"Features":       homeFeatures,
		"QuickQuestions": p.T.List("home.quickQuestions"),
	}
	h.render(w, http.StatusOK, "home", p)
}

var programKeys = []string{"dataScience", "machineIntelligence", "cybersecurity", "intelligentSystems"}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	p.Data = programKeys
	h.render(w, http.StatusOK, "about", p)
}

type faqItem struct {
	Question string
	Answer   string
	Open     bool
}

type faqCategory struct {
	Title string
	Items []faqItem
}

var faqCategoryKeys = []string{"admission", "programs", "creditHours", "trainingProjects", "gradesAssessment", "generalInfo"}

// faqCategories returns the categories with items matching query. The first
// matching item starts expanded.
func faqCategories(t *i18n.Translator, query string) []faqCategory {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []faqCategory
	for _, key := range faqCategoryKeys {
		c := faqCategory{Title: t.T("faq.categories." + key + ".title")}
		for _, e := range t.Entries("faq.categories." + key + ".questions") {
			if query != "" &&
				!strings.Contains(strings.ToLower(e["question"]), query) &&
				!strings.Contains(strings.ToLower(e["answer"]), query) {
				continue
			}
			c.Items = append(c.Items, faqItem{Question: e["question"], Answer: e["answer"]})
		}
		if len(c.Items) > 0 {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		out[0].Items[0].Open = true
	}
	return out
}

func (h *Handler) FAQ(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	query := r.URL.Query().Get("q")
	p.Form["q"] = query
	p.Data = faqCategories(p.T, query)
	h.render(w, http.StatusOK, "faq", p)
}

type helpTopic struct {
	Icon    string
	Title   string
	Content []string
}

var helpTopicKeys = []struct{ icon, key string }{
	{"💬", "howToUse"},
	{"🎯", "betterAnswers"},
	{"📖", "availableInfo"},
	{"❓", "commonQuestions"},
}

// helpTopics returns the topics whose title or content contains query
func helpTopics(t *i18n.Translator, query string) []helpTopic {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []helpTopic
	for _, k := range helpTopicKeys {
		topic := helpTopic{
			Icon:    k.icon,
			Title:   t.T("help.topics." + k.key + ".title"),
			Content: t.List("help.topics." + k.key + ".content"),
		}
		if query == "" || matches(query, topic.Title, topic.Content...) {
			out = append(out, topic)
		}
	}
	return out
}

func matches(query, title string, content ...string) bool {
	if strings.Contains(strings.ToLower(title), query) {
		return true
	}
	for _, c := range content {
		if strings.Contains(strings.ToLower(c), query) {
			return true
		}
	}
	return false
}

func (h *Handler) Help(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	query := r.URL.Query().Get("q")
	p.Form["q"] = query
	p.Data = helpTopics(p.T, query)
	h.render(w, http.StatusOK, "help", p)
}

func (h *Handler) Privacy(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	p.Data = p.T.Entries("privacy.sections")
	h.render(w, http.StatusOK, "privacy", p)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "not_found", h.page(r))
}

// SetLanguage switches the active language and returns to the page it was posted from
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	i18n.FromContext(r.Context()).SetLanguage(r.Context(), r.PostFormValue("lang"))
	http.Redirect(w, r, localPath(r.PostFormValue("next")), http.StatusSeeOther)
}
