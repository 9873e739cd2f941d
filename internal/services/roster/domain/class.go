package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
)

// classes is the fixed set of valid character class labels in stored form.
var classes = []string{
	"Death Knight",
	"Demon Hunter",
	"Druid",
	"Hunter",
	"Mage",
	"Monk",
	"Paladin",
	"Priest",
	"Rogue",
	"Shaman",
	"Warlock",
	"Warrior",
}

// NormalizeClass validates a class label case-insensitively and returns its
// stored title-cased form.
func NormalizeClass(raw string) (string, error) {
	normalized := cases.Title(language.English).String(strings.Join(strings.Fields(raw), " "))
	for _, class := range classes {
		if class == normalized {
			return class, nil
		}
	}
	return "", apperrors.New(apperrors.CodeInvalidClass, "class must be one of: "+strings.Join(classes, ", "))
}
