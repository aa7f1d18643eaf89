package bot

import (
	"context"
	"errors"
	"fmt"

	"carouspot/internal/detect"
	"carouspot/internal/model"
	"carouspot/internal/registry"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64, firstName string) {
	if err := b.reg.EnsureSubscriber(ctx, chatID); err != nil {
		b.log.Error("ensure subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	greeting := "Hi"
	if firstName != "" {
		greeting = "Hi " + firstName
	}
	b.reply(chatID, greeting+`, welcome to CarouSpot!

Track Carousell search keywords and get notified when new listings are posted.

Quick start:
1. /subscribe <keyword> — track a keyword (e.g. /subscribe xbox)
2. /list — show your tracked keywords

Type /help to see the list of commands.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Here's what I can do:
/subscribe <keyword> — get notified about new listings for a keyword
/unsubscribe <keyword> — stop tracking a keyword
/list — show your tracked keywords
/start — (re)register this chat`)
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64, args string) {
	keyword := model.NormalizeKeyword(args)
	if keyword == "" {
		b.reply(chatID, "Usage: /subscribe <keyword> (e.g. /subscribe xbox)")
		return
	}

	// Seed the cursor from a live snapshot on first tracking so the new
	// subscriber is not flooded with every historical listing.
	var seed int64
	if _, err := b.reg.GetKeyword(ctx, keyword); errors.Is(err, registry.ErrKeywordNotFound) {
		snapshot, err := b.source.Search(ctx, keyword)
		if err != nil {
			b.log.Error("seed scrape", "keyword", keyword, "error", err)
			b.reply(chatID, fmt.Sprintf("Couldn't look up %q right now, please try again in a bit.", keyword))
			return
		}
		seed = detect.SeedCursor(snapshot)
	} else if err != nil {
		b.log.Error("get keyword", "keyword", keyword, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	if err := b.reg.Subscribe(ctx, chatID, keyword, seed); err != nil {
		b.log.Error("subscribe", "chat_id", chatID, "keyword", keyword, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	b.reply(chatID, fmt.Sprintf("Okay, you are now subscribed to '%s'!\nYou will be notified when new listings are posted.", keyword))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64, args string) {
	keyword := model.NormalizeKeyword(args)
	if keyword == "" {
		b.reply(chatID, "Usage: /unsubscribe <keyword>")
		return
	}

	removed, err := b.reg.Unsubscribe(ctx, chatID, keyword)
	if err != nil {
		b.log.Error("unsubscribe", "chat_id", chatID, "keyword", keyword, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf("You are not subscribed to '%s'.", keyword))
		return
	}
	b.reply(chatID, fmt.Sprintf("You are no longer subscribed to '%s'.", keyword))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	keywords, err := b.reg.ListSubscriptions(ctx, chatID)
	if err != nil {
		b.log.Error("list subscriptions", "chat_id", chatID, "error", err)
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	b.reply(chatID, FormatSubscriptionList(keywords))
}
