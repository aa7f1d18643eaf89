package bot

import (
	"fmt"
	"strings"

	"carouspot/internal/model"
)

// FormatSubscriptionList formats a chat's tracked keywords for display.
func FormatSubscriptionList(keywords []model.Keyword) string {
	if len(keywords) == 0 {
		return "You have no subscriptions yet. Use /subscribe <keyword> to add one."
	}

	var b strings.Builder
	b.WriteString("Your tracked keywords:\n")
	for _, k := range keywords {
		checked := "not checked yet"
		if k.LastCheckedAt != nil {
			checked = "last checked " + k.LastCheckedAt.Format("2006-01-02 15:04 UTC")
		}
		fmt.Fprintf(&b, "\n- %s (%s)\n", k.Keyword, checked)
	}
	return b.String()
}
