package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Swedish

	message.SetString(lang, "roster.generic.body", "Rosteruppdatering.")
	message.SetString(lang, "roster.swap_requested.body", "%s vill byta bort sin plats i rostern den %s.")
	message.SetString(lang, "roster.swap_requested.body_reason", "%s vill byta bort sin plats i rostern den %s: %s")
	message.SetString(lang, "roster.swap_accepted.body", "%s har erbjudit sig att ta platsen från %s den %s. Väntar på officersgodkännande.")
	message.SetString(lang, "roster.swap_approved.body", "Bytet godkänt: %s lämnar över platsen till %s den %s.")
	message.SetString(lang, "roster.swap_denied.body", "Bytesförfrågan från %s den %s nekades.")
	message.SetString(lang, "roster.swap_denied.body_note", "Bytesförfrågan från %s den %s nekades: %s")
	message.SetString(lang, "roster.swap_cancelled.body", "%s drog tillbaka sin bytesförfrågan den %s.")
}
