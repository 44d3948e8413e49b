package main

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/opentichu/tichu/client/internal/client"
)

// prompt shows whose move it is at a glance.
func prompt(c *client.Client) string {
	if c.Turn() {
		return "tichu (your turn)>"
	}
	return "tichu>"
}

// drainPushes consumes every waiting push notification and renders it.
func drainPushes(c *client.Client) {
	for c.HasPushMessages() {
		msg, ok := c.NextPushMessage()
		if !ok {
			return
		}
		switch msg.Topic {
		case client.TopicNewTrick:
			pterm.Info.Printfln("On the table: %s", strings.Join(msg.Cards, ", "))
		case client.TopicClearCards:
			pterm.Info.Println("Round over, cards cleared.")
		case "cleartable":
			pterm.Info.Println("Table cleared.")
		default:
			pterm.Info.Printfln("[%s] %s", msg.Topic, msg.Payload)
		}
	}
}

// renderCards draws the hand and stage with their positions, so the indices
// the stage/unstage commands expect are visible.
func renderCards(c *client.Client) {
	hand := c.Hand()
	stage := c.Stage()

	box := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2)
	box.WithTitle("Hand").Println(cardLine(hand))
	if len(stage) > 0 {
		box.WithTitle("Stage").Println(cardLine(stage))
	}
}

func cardLine(cards []string) string {
	if len(cards) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = pterm.Sprintf("%d:%s", i, pterm.LightCyan(card))
	}
	return strings.Join(parts, "  ")
}
