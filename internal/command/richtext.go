package command

import (
	"strings"

	"cmdbar/internal/gid"

	"golang.org/x/net/html"
)

// Rich-text lines embed people and tags as attachment elements carrying a
// gid attribute, e.g.
//
//	<cmdbar-attachment gid="gid://cmdbar/Person/kevin">Kevin</cmdbar-attachment>
//
// The grammar sees each attachment as its global reference; the stored line
// keeps the attachment's visible text.

// withAttachmentRefs renders s as plain text with attachments replaced by
// their global references.
func withAttachmentRefs(s string) string {
	return plainText(s, true)
}

// asPlainText renders s as plain text.
func asPlainText(s string) string {
	return plainText(s, false)
}

func plainText(s string, refs bool) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken:
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			tok := z.Token()
			if ref, ok := attachmentRef(tok); ok && refs {
				sb.WriteString(" " + ref + " ")
				skipDepth = 1
			} else if isBlock(tok.Data) {
				sb.WriteString(" ")
			}
		case html.EndTagToken:
			if skipDepth > 0 {
				skipDepth--
			}
		case html.SelfClosingTagToken:
			if skipDepth > 0 {
				continue
			}
			tok := z.Token()
			if ref, ok := attachmentRef(tok); ok && refs {
				sb.WriteString(" " + ref + " ")
			} else if isBlock(tok.Data) {
				sb.WriteString(" ")
			}
		}
	}
}

func attachmentRef(tok html.Token) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == "gid" && gid.IsRef(a.Val) {
			return a.Val, true
		}
	}
	return "", false
}

func isBlock(tag string) bool {
	switch tag {
	case "br", "p", "div", "li":
		return true
	}
	return false
}
