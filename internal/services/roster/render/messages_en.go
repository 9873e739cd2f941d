package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "roster.generic.body", defaultGenericBody)
	message.SetString(lang, "roster.swap_requested.body", "%s has requested a swap out of the %s roster.")
	message.SetString(lang, "roster.swap_requested.body_reason", "%s has requested a swap out of the %s roster: %s")
	message.SetString(lang, "roster.swap_accepted.body", "%s offered to take the slot from %s on %s. Awaiting officer approval.")
	message.SetString(lang, "roster.swap_approved.body", "Swap approved: %s hands the slot to %s for %s.")
	message.SetString(lang, "roster.swap_denied.body", "The swap request from %s for %s was denied.")
	message.SetString(lang, "roster.swap_denied.body_note", "The swap request from %s for %s was denied: %s")
	message.SetString(lang, "roster.swap_cancelled.body", "%s withdrew the swap request for %s.")
}
