package persona

import "strings"

// Keyword sets for topic classification. Matching is plain substring
// containment on the lowercased topic.
var (
	medicalKeywords = []string{"drug", "medicine", "patient", "treatment", "dose", "clinical", "symptom", "cancer"}
	codeKeywords    = []string{"code", "python", "bug", "function", "api", "software", "debug", "compile", "class"}
)

// Panel name lists returned by SelectPanel.
var (
	medicalPanel = []string{"Oncologist", "Biostatistician", "Regulatory"}
	codePanel    = []string{"Architect", "Security", "QA"}
	generalPanel = []string{"Generalist", "Skeptic", "Optimist"}
)

// SelectPanel picks a panel for a topic by keyword classification: medical
// terms select the medical panel, code terms the code panel, anything else
// the general panel. Medical wins when both match.
func SelectPanel(topic string) []string {
	lower := strings.ToLower(topic)

	if containsAny(lower, medicalKeywords) {
		return append([]string(nil), medicalPanel...)
	}
	if containsAny(lower, codeKeywords) {
		return append([]string(nil), codePanel...)
	}
	return append([]string(nil), generalPanel...)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
