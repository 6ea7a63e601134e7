package lore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
)

var (
	headerCN = "与'%s'相关的背景信息："
	headerEN = "Background information related to '%s':"
	emptyCN  = "未提供查询内容"
	emptyEN  = "no query provided"
)

// Format renders entries as player-facing lore text. An empty query selects
// the "no query provided" header instead of the query-echoing one.
func Format(query string, entries []worldpack.LoreEntry, lang string) string {
	var b strings.Builder
	if query == "" {
		b.WriteString(i18n.Pair{CN: emptyCN, EN: emptyEN}.Resolve(lang))
	} else {
		b.WriteString(i18n.Pair{
			CN: fmt.Sprintf(headerCN, query),
			EN: fmt.Sprintf(headerEN, query),
		}.Resolve(lang))
	}
	for _, entry := range entries {
		b.WriteString("\n")
		if len(entry.PrimaryKeys) > 0 {
			b.WriteString("[")
			b.WriteString(strings.Join(entry.PrimaryKeys, ", "))
			b.WriteString("] ")
		}
		b.WriteString(entry.Content.Resolve(lang))
	}
	return b.String()
}

func itoaUID(uid int) string {
	return strconv.Itoa(uid)
}

// uidFromDocID recovers the lore entry uid from a vector-store document id.
// NPC-memory collections use a different id scheme and never flow through
// this path, so a non-numeric id simply contributes no dual-match boost.
func uidFromDocID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1
	}
	return n
}
