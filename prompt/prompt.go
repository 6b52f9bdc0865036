// Package prompt compiles a persona template, a user's remembered
// facts, and the triggering message into a single generation request.
package prompt

import "strings"

// ImproviseLine is rendered when nothing is known about the user yet.
const ImproviseLine = "You know nothing about them yet. Improvise."

// Compile renders the generation prompt. It is a pure function of its
// inputs: the fact list is rendered in order when non-empty, the
// improvise line otherwise, and the triggering message is included
// verbatim with no truncation. Truncation policy, if any, belongs to
// the generation gateway.
func Compile(template string, facts []string, message string) string {
	var b strings.Builder

	b.WriteString(template)
	b.WriteString("\n\n")

	if len(facts) == 0 {
		b.WriteString(ImproviseLine)
	} else {
		b.WriteString("Here is what you know about the person you're talking to:\n")
		for _, fact := range facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\nThey just said:\n")
	b.WriteString(message)
	b.WriteString("\n\nReply in character.")

	return b.String()
}

// Extraction wraps a chat message in the fact-extraction request. The
// oracle is asked for a one-line fact about the author, or the literal
// sentinel when there is nothing worth keeping.
func Extraction(sentinel, message string) string {
	var b strings.Builder

	b.WriteString("Read the following chat message and decide whether it reveals a durable, ")
	b.WriteString("personal, interesting, or quirky fact about its author.\n\n")
	b.WriteString("If it does, reply with exactly one short line summarizing that fact in the ")
	b.WriteString("third person, with no preamble.\n")
	b.WriteString("If it does not, reply with exactly: ")
	b.WriteString(sentinel)
	b.WriteString("\n\nThe message:\n")
	b.WriteString(message)

	return b.String()
}

// DebateTopic asks the oracle for a fresh debate topic.
func DebateTopic() string {
	return "Give me a short, enticing, and debatable hot take or controversial " +
		"opinion that would spark a heated discussion among friends on a chat " +
		"server. Reply with the topic only."
}
