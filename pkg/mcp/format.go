package mcp

import (
	"fmt"
	"strings"

	"github.com/nextchat-ai/nextchat/pkg/catalog"
	"github.com/nextchat-ai/nextchat/pkg/models"
)

func formatModels(all []catalog.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-20s %-12s %s\n", "ID", "Name", "Provider", "Served")
	b.WriteString(strings.Repeat("-", 64) + "\n")
	for _, m := range all {
		served := "simulated"
		if m.Supported() {
			served = "yes"
		}
		fmt.Fprintf(&b, "%-20s %-20s %-12s %s\n", m.ID, m.Name, m.Provider, served)
	}
	return b.String()
}

func formatSessions(sessions []models.ChatSession, current string) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %-38s %-16s %8s %-20s\n", "Session ID", "Topic", "Messages", "Last Update")
	b.WriteString(strings.Repeat("-", 88) + "\n")
	for _, s := range sessions {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-38s %-16s %8d %-20s\n",
			marker, s.ID, s.Topic, len(s.Messages), s.LastUpdate.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatMessages(sess models.ChatSession) string {
	if len(sess.Messages) == 0 {
		return "No messages in this session."
	}
	var b strings.Builder
	for i, m := range sess.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s (%s)\n%s\n", m.Date.Format("2006-01-02 15:04:05"), m.Role, m.Model, m.Content)
	}
	return b.String()
}

func formatCacheStats(s models.CacheStats) string {
	total := s.Hits + s.Misses
	rate := 0.0
	if total > 0 {
		rate = float64(s.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Entries:  %d\nHits:     %d\nMisses:   %d\nHit Rate: %.1f%%\n", s.Entries, s.Hits, s.Misses, rate)
}
